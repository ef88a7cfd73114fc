package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/alhisab/school-fees-api/api/swagger"
	"github.com/alhisab/school-fees-api/internal/handler"
	"github.com/alhisab/school-fees-api/internal/middleware"
	"github.com/alhisab/school-fees-api/internal/repository"
	"github.com/alhisab/school-fees-api/internal/service"
	"github.com/alhisab/school-fees-api/pkg/cache"
	"github.com/alhisab/school-fees-api/pkg/config"
	"github.com/alhisab/school-fees-api/pkg/database"
	"github.com/alhisab/school-fees-api/pkg/export"
	"github.com/alhisab/school-fees-api/pkg/jobs"
	"github.com/alhisab/school-fees-api/pkg/logger"
	corsmiddleware "github.com/alhisab/school-fees-api/pkg/middleware/cors"
	reqidmiddleware "github.com/alhisab/school-fees-api/pkg/middleware/requestid"
	"github.com/alhisab/school-fees-api/pkg/storage"
)

// @title School Fees API
// @version 1.0.0
// @description Multi-school fee management and ledger reconciliation service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	incomeRepo := repository.NewIncomeRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	receipts := export.NewReceiptExporter()

	schoolSvc := service.NewSchoolService(schoolRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, schoolRepo, installmentRepo, validate, logr)
	installmentSvc := service.NewInstallmentService(installmentRepo, receipts, cacheSvc, metricsSvc, validate, logr)
	feeSvc := service.NewFeeService(feeRepo, receipts, cacheSvc, metricsSvc, validate, logr)
	expenseSvc := service.NewExpenseService(expenseRepo, cacheSvc, validate, logr)
	incomeSvc := service.NewIncomeService(incomeRepo, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, service.DashboardConfig{CacheTTL: cfg.Dashboard.CacheTTL}, logr)

	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(installmentRepo, feeRepo, dashboardRepo, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, nil, nil)

	reportWorker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reportQueue.Start(rootCtx)
	reportSvc.RecoverPendingJobs(rootCtx)
	reportSvc.StartCleanup(rootCtx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	routes := &handler.Routes{
		Auth:         handler.NewAuthHandler(authSvc),
		Schools:      handler.NewSchoolHandler(schoolSvc),
		Students:     handler.NewStudentHandler(studentSvc),
		Installments: handler.NewInstallmentHandler(installmentSvc),
		Fees:         handler.NewFeeHandler(feeSvc),
		Expenses:     handler.NewExpenseHandler(expenseSvc),
		Incomes:      handler.NewIncomeHandler(incomeSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Reports:      handler.NewReportHandler(reportSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc),
		AuthService:  authSvc,
	}
	routes.Register(r, cfg.APIPrefix)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	cancel()
	reportQueue.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
