package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/service"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
	"github.com/alhisab/school-fees-api/pkg/response"
)

// FeeHandler exposes additional fee endpoints.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// Record godoc
// @Summary Record an additional fee
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.RecordFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FeeHandler) Record(c *gin.Context) {
	var req service.RecordFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// List godoc
// @Summary List additional fees
// @Tags Fees
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param studentId query string false "Filter by student"
// @Param type query string false "Filter by fee type"
// @Param paid query bool false "Filter by paid state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	var filter models.FeeFilter
	filter.SchoolID = c.Query("schoolId")
	filter.StudentID = c.Query("studentId")
	filter.Type = c.Query("type")
	if paid := c.Query("paid"); paid != "" {
		if paid == "true" {
			v := true
			filter.Paid = &v
		} else if paid == "false" {
			v := false
			filter.Paid = &v
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

	fees, pagination, totals, err := h.fees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination, map[string]interface{}{"totals": totals})
}

// Get godoc
// @Summary Get additional fee detail
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// TogglePaid godoc
// @Summary Mark fee paid or unpaid
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body service.ToggleFeeRequest true "Paid flag"
// @Success 200 {object} response.Envelope
// @Router /fees/{id}/paid [patch]
func (h *FeeHandler) TogglePaid(c *gin.Context) {
	var req service.ToggleFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.TogglePaid(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Delete godoc
// @Summary Delete additional fee
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 204
// @Router /fees/{id} [delete]
func (h *FeeHandler) Delete(c *gin.Context) {
	if err := h.fees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Receipt godoc
// @Summary Download fee receipt
// @Description Only paid fees have receipts
// @Tags Fees
// @Produce application/pdf
// @Param id path string true "Fee ID"
// @Success 200 {file} binary
// @Router /fees/{id}/receipt [get]
func (h *FeeHandler) Receipt(c *gin.Context) {
	pdf, err := h.fees.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("fee_%s.pdf", c.Param("id"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
