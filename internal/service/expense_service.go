package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

type expenseRepository interface {
	GetMonth(ctx context.Context, month string) (*models.MonthlyExpenses, error)
	AddEntry(ctx context.Context, entry *models.ExpenseEntry) error
	FindEntry(ctx context.Context, id string) (*models.ExpenseEntry, error)
	UpdateEntry(ctx context.Context, entry *models.ExpenseEntry) error
	DeleteEntry(ctx context.Context, month, id string) error
}

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ExpenseEntryRequest holds payload for creating and updating expense entries.
type ExpenseEntryRequest struct {
	Description string    `json:"description" validate:"required"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	SpentAt     time.Time `json:"spent_at"`
}

// ExpenseService handles the month-keyed expense ledger.
type ExpenseService struct {
	repo      expenseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExpenseService constructs the expense service.
func NewExpenseService(repo expenseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// GetMonth returns the expense ledger for a YYYY-MM month. Months with no
// entries come back empty rather than as an error.
func (s *ExpenseService) GetMonth(ctx context.Context, month string) (*models.MonthlyExpenses, error) {
	if !monthKeyPattern.MatchString(month) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM")
	}
	ledger, err := s.repo.GetMonth(ctx, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load month expenses")
	}
	return ledger, nil
}

// AddEntry records an expense inside the given month.
func (s *ExpenseService) AddEntry(ctx context.Context, month string, req ExpenseEntryRequest) (*models.ExpenseEntry, error) {
	if !monthKeyPattern.MatchString(month) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expense payload")
	}
	entry := &models.ExpenseEntry{
		Month:       month,
		Description: req.Description,
		Amount:      req.Amount,
		SpentAt:     req.SpentAt,
	}
	if entry.SpentAt.IsZero() {
		entry.SpentAt = time.Now().UTC()
	}
	if err := s.repo.AddEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add expense")
	}
	s.invalidateDashboard(ctx)
	return entry, nil
}

// UpdateEntry modifies an expense entry within its month.
func (s *ExpenseService) UpdateEntry(ctx context.Context, month, id string, req ExpenseEntryRequest) (*models.ExpenseEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expense payload")
	}
	entry, err := s.findEntry(ctx, month, id)
	if err != nil {
		return nil, err
	}
	entry.Description = req.Description
	entry.Amount = req.Amount
	if !req.SpentAt.IsZero() {
		entry.SpentAt = req.SpentAt
	}
	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update expense")
	}
	s.invalidateDashboard(ctx)
	return entry, nil
}

// DeleteEntry removes an expense entry from its month.
func (s *ExpenseService) DeleteEntry(ctx context.Context, month, id string) error {
	if _, err := s.findEntry(ctx, month, id); err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, month, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete expense")
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *ExpenseService) findEntry(ctx context.Context, month, id string) (*models.ExpenseEntry, error) {
	entry, err := s.repo.FindEntry(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expense entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expense entry")
	}
	if entry.Month != month {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "expense entry not found in this month")
	}
	return entry, nil
}

func (s *ExpenseService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
