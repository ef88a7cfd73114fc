package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alhisab/school-fees-api/internal/service"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
	"github.com/alhisab/school-fees-api/pkg/response"
)

// ExpenseHandler exposes the month-keyed expense ledger.
type ExpenseHandler struct {
	expenses *service.ExpenseService
}

// NewExpenseHandler constructs ExpenseHandler.
func NewExpenseHandler(expenses *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// GetMonth godoc
// @Summary Get monthly expenses
// @Tags Expenses
// @Produce json
// @Param month path string true "Month keyed YYYY-MM"
// @Success 200 {object} response.Envelope
// @Router /expenses/{month} [get]
func (h *ExpenseHandler) GetMonth(c *gin.Context) {
	ledger, err := h.expenses.GetMonth(c.Request.Context(), c.Param("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil)
}

// AddEntry godoc
// @Summary Add expense entry
// @Tags Expenses
// @Accept json
// @Produce json
// @Param month path string true "Month keyed YYYY-MM"
// @Param payload body service.ExpenseEntryRequest true "Expense payload"
// @Success 201 {object} response.Envelope
// @Router /expenses/{month}/entries [post]
func (h *ExpenseHandler) AddEntry(c *gin.Context) {
	var req service.ExpenseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.expenses.AddEntry(c.Request.Context(), c.Param("month"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry godoc
// @Summary Update expense entry
// @Tags Expenses
// @Accept json
// @Produce json
// @Param month path string true "Month keyed YYYY-MM"
// @Param id path string true "Entry ID"
// @Param payload body service.ExpenseEntryRequest true "Expense payload"
// @Success 200 {object} response.Envelope
// @Router /expenses/{month}/entries/{id} [put]
func (h *ExpenseHandler) UpdateEntry(c *gin.Context) {
	var req service.ExpenseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.expenses.UpdateEntry(c.Request.Context(), c.Param("month"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Delete expense entry
// @Tags Expenses
// @Produce json
// @Param month path string true "Month keyed YYYY-MM"
// @Param id path string true "Entry ID"
// @Success 204
// @Router /expenses/{month}/entries/{id} [delete]
func (h *ExpenseHandler) DeleteEntry(c *gin.Context) {
	if err := h.expenses.DeleteEntry(c.Request.Context(), c.Param("month"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
