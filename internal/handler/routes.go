package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/alhisab/school-fees-api/internal/middleware"
	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/service"
)

// Routes aggregates every handler for route registration.
type Routes struct {
	Auth         *AuthHandler
	Schools      *SchoolHandler
	Students     *StudentHandler
	Installments *InstallmentHandler
	Fees         *FeeHandler
	Expenses     *ExpenseHandler
	Incomes      *IncomeHandler
	Dashboard    *DashboardHandler
	Reports      *ReportHandler
	Metrics      *MetricsHandler

	AuthService *service.AuthService
}

// Register mounts all routes under the API prefix.
func (rt *Routes) Register(r *gin.Engine, prefix string) {
	r.GET("/health", rt.Metrics.Health)
	r.GET("/ready", rt.Metrics.Health)
	r.GET("/metrics", rt.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", rt.Auth.Login)
		auth.POST("/refresh", rt.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(rt.AuthService), rt.Auth.Logout)
		auth.GET("/me", middleware.JWT(rt.AuthService), rt.Auth.Me)
	}

	// Report downloads are authorized by the signed token itself.
	api.GET("/reports/download/:token", rt.Reports.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(rt.AuthService))

	accounts := protected.Group("/accounts", middleware.RequireRoles(models.RoleAdmin))
	{
		accounts.GET("", rt.Auth.ListAccountants)
		accounts.POST("", rt.Auth.CreateAccountant)
		accounts.DELETE("/:id", rt.Auth.DeactivateAccountant)
	}

	schools := protected.Group("/schools")
	{
		schools.GET("", rt.Schools.List)
		schools.POST("", middleware.RequireRoles(models.RoleAdmin), rt.Schools.Create)
		schools.GET("/:id", rt.Schools.Get)
		schools.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), rt.Schools.Update)
		schools.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), rt.Schools.Delete)
		schools.GET("/:id/grades", rt.Schools.Grades)
	}

	students := protected.Group("/students")
	{
		students.GET("", rt.Students.List)
		students.POST("", rt.Students.Create)
		students.POST("/bulk", rt.Students.BulkCreate)
		students.GET("/:id", rt.Students.Get)
		students.PUT("/:id", rt.Students.Update)
		students.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), rt.Students.Delete)
		students.GET("/:id/statement", rt.Students.Statement)
		students.GET("/:id/installments", rt.Installments.ListForStudent)
		students.POST("/:id/installments", rt.Installments.RecordForStudent)
	}

	installments := protected.Group("/installments")
	{
		installments.GET("", rt.Installments.List)
		installments.POST("", rt.Installments.Record)
		installments.GET("/:id", rt.Installments.Get)
		installments.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), rt.Installments.Delete)
		installments.GET("/:id/receipt", rt.Installments.Receipt)
	}

	fees := protected.Group("/fees")
	{
		fees.GET("", rt.Fees.List)
		fees.POST("", rt.Fees.Record)
		fees.GET("/:id", rt.Fees.Get)
		fees.PATCH("/:id/paid", rt.Fees.TogglePaid)
		fees.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), rt.Fees.Delete)
		fees.GET("/:id/receipt", rt.Fees.Receipt)
	}

	expenses := protected.Group("/expenses")
	{
		expenses.GET("/:month", rt.Expenses.GetMonth)
		expenses.POST("/:month/entries", rt.Expenses.AddEntry)
		expenses.PUT("/:month/entries/:id", rt.Expenses.UpdateEntry)
		expenses.DELETE("/:month/entries/:id", rt.Expenses.DeleteEntry)
	}

	incomes := protected.Group("/incomes")
	{
		incomes.GET("", rt.Incomes.List)
		incomes.POST("", rt.Incomes.Create)
		incomes.GET("/:id", rt.Incomes.Get)
		incomes.PUT("/:id", rt.Incomes.Update)
		incomes.DELETE("/:id", rt.Incomes.Delete)
	}

	dashboard := protected.Group("/dashboard")
	{
		dashboard.GET("/summary", rt.Dashboard.Summary)
		dashboard.GET("/schools", rt.Dashboard.SchoolBreakdown)
	}

	reports := protected.Group("/reports")
	{
		reports.POST("", rt.Reports.Create)
		reports.GET("/:id", rt.Reports.Status)
	}
}
