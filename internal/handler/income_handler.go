package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/service"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
	"github.com/alhisab/school-fees-api/pkg/response"
)

// IncomeHandler exposes external income endpoints.
type IncomeHandler struct {
	incomes *service.IncomeService
}

// NewIncomeHandler constructs IncomeHandler.
func NewIncomeHandler(incomes *service.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomes: incomes}
}

// List godoc
// @Summary List external incomes
// @Tags Incomes
// @Produce json
// @Param search query string false "Search by source"
// @Param from query string false "Received on or after (RFC 3339 date)"
// @Param to query string false "Received before (RFC 3339 date)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /incomes [get]
func (h *IncomeHandler) List(c *gin.Context) {
	var filter models.IncomeFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = &t
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	incomes, pagination, total, err := h.incomes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incomes, pagination, map[string]interface{}{"total_amount": total})
}

// Get godoc
// @Summary Get income detail
// @Tags Incomes
// @Produce json
// @Param id path string true "Income ID"
// @Success 200 {object} response.Envelope
// @Router /incomes/{id} [get]
func (h *IncomeHandler) Get(c *gin.Context) {
	income, err := h.incomes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, income, nil)
}

// Create godoc
// @Summary Record external income
// @Tags Incomes
// @Accept json
// @Produce json
// @Param payload body service.IncomeRequest true "Income payload"
// @Success 201 {object} response.Envelope
// @Router /incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	var req service.IncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	income, err := h.incomes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, income)
}

// Update godoc
// @Summary Update external income
// @Tags Incomes
// @Accept json
// @Produce json
// @Param id path string true "Income ID"
// @Param payload body service.IncomeRequest true "Income payload"
// @Success 200 {object} response.Envelope
// @Router /incomes/{id} [put]
func (h *IncomeHandler) Update(c *gin.Context) {
	var req service.IncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	income, err := h.incomes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, income, nil)
}

// Delete godoc
// @Summary Delete external income
// @Tags Incomes
// @Produce json
// @Param id path string true "Income ID"
// @Success 204
// @Router /incomes/{id} [delete]
func (h *IncomeHandler) Delete(c *gin.Context) {
	if err := h.incomes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
