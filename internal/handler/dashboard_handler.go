package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/pkg/response"
)

type dashboardProvider interface {
	Summary(ctx context.Context, month string) (*models.FinancialSummary, bool, error)
	SchoolBreakdown(ctx context.Context) ([]models.SchoolBreakdown, bool, error)
}

// DashboardHandler exposes aggregated financial views.
type DashboardHandler struct {
	dashboard dashboardProvider
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard dashboardProvider) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Financial summary
// @Description Aggregated totals across schools, optionally scoped to a month
// @Tags Dashboard
// @Produce json
// @Param month query string false "Month keyed YYYY-MM"
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, cached, err := h.dashboard.Summary(c.Request.Context(), c.Query("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": cached})
}

// SchoolBreakdown godoc
// @Summary Per-school collection breakdown
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/schools [get]
func (h *DashboardHandler) SchoolBreakdown(c *gin.Context) {
	breakdown, cached, err := h.dashboard.SchoolBreakdown(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, breakdown, nil, map[string]interface{}{"cached": cached})
}
