package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

type fakeDashboardSrv struct {
	summary   *models.FinancialSummary
	breakdown []models.SchoolBreakdown
	cached    bool
	err       error
	lastMonth string
}

func (f *fakeDashboardSrv) Summary(_ context.Context, month string) (*models.FinancialSummary, bool, error) {
	f.lastMonth = month
	return f.summary, f.cached, f.err
}

func (f *fakeDashboardSrv) SchoolBreakdown(context.Context) ([]models.SchoolBreakdown, bool, error) {
	return f.breakdown, f.cached, f.err
}

func TestDashboardHandlerSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{
		summary: &models.FinancialSummary{TotalCollected: 750000, Month: "2026-01"},
		cached:  true,
	}
	h := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/summary?month=2026-01", nil)

	h.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-01", srv.lastMonth)

	envelope := mustEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, true, envelope.Meta["cached"])

	var data map[string]interface{}
	assert.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, 750000.0, data["total_collected"])
}

func TestDashboardHandlerSummaryInvalidMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDashboardHandler(&fakeDashboardSrv{
		err: appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/summary?month=nope", nil)

	h.Summary(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerSchoolBreakdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDashboardHandler(&fakeDashboardSrv{
		breakdown: []models.SchoolBreakdown{{SchoolID: "sch-1", Collected: 500000}},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/schools", nil)

	h.SchoolBreakdown(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, mustEnvelope(t, rec.Body.Bytes()).Meta["cached"])
}

type responseEnvelope struct {
	Data json.RawMessage        `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func mustEnvelope(t *testing.T, body []byte) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return envelope
}
