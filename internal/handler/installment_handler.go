package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/service"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
	"github.com/alhisab/school-fees-api/pkg/response"
)

type installmentProvider interface {
	Record(ctx context.Context, req service.RecordInstallmentRequest) (*models.Installment, error)
	List(ctx context.Context, filter models.InstallmentFilter) ([]models.Installment, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Installment, error)
	Delete(ctx context.Context, id string) error
	Receipt(ctx context.Context, id string) ([]byte, error)
}

// InstallmentHandler exposes tuition payment endpoints.
type InstallmentHandler struct {
	installments installmentProvider
}

// NewInstallmentHandler constructs InstallmentHandler.
func NewInstallmentHandler(installments installmentProvider) *InstallmentHandler {
	return &InstallmentHandler{installments: installments}
}

// Record godoc
// @Summary Record a tuition installment
// @Description Rejects payments that would push the student past their total fee
// @Tags Installments
// @Accept json
// @Produce json
// @Param payload body service.RecordInstallmentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /installments [post]
func (h *InstallmentHandler) Record(c *gin.Context) {
	var req service.RecordInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	installment, err := h.installments.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, installment)
}

// RecordForStudent godoc
// @Summary Record a tuition installment for a student
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.RecordInstallmentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/installments [post]
func (h *InstallmentHandler) RecordForStudent(c *gin.Context) {
	var req service.RecordInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.StudentID = c.Param("id")
	installment, err := h.installments.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, installment)
}

// ListForStudent godoc
// @Summary List a student's installments
// @Tags Installments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/installments [get]
func (h *InstallmentHandler) ListForStudent(c *gin.Context) {
	filter := models.InstallmentFilter{StudentID: c.Param("id")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	installments, pagination, err := h.installments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, installments, pagination)
}

// List godoc
// @Summary List installments
// @Tags Installments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /installments [get]
func (h *InstallmentHandler) List(c *gin.Context) {
	var filter models.InstallmentFilter
	filter.StudentID = c.Query("studentId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	installments, pagination, err := h.installments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, installments, pagination)
}

// Get godoc
// @Summary Get installment detail
// @Tags Installments
// @Produce json
// @Param id path string true "Installment ID"
// @Success 200 {object} response.Envelope
// @Router /installments/{id} [get]
func (h *InstallmentHandler) Get(c *gin.Context) {
	installment, err := h.installments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, installment, nil)
}

// Delete godoc
// @Summary Void an installment
// @Tags Installments
// @Produce json
// @Param id path string true "Installment ID"
// @Success 204
// @Router /installments/{id} [delete]
func (h *InstallmentHandler) Delete(c *gin.Context) {
	if err := h.installments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Receipt godoc
// @Summary Download installment receipt
// @Tags Installments
// @Produce application/pdf
// @Param id path string true "Installment ID"
// @Success 200 {file} binary
// @Router /installments/{id}/receipt [get]
func (h *InstallmentHandler) Receipt(c *gin.Context) {
	pdf, err := h.installments.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("installment_%s.pdf", c.Param("id"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
