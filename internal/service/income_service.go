package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

type incomeRepository interface {
	List(ctx context.Context, filter models.IncomeFilter) ([]models.ExternalIncome, int, float64, error)
	FindByID(ctx context.Context, id string) (*models.ExternalIncome, error)
	Create(ctx context.Context, income *models.ExternalIncome) error
	Update(ctx context.Context, income *models.ExternalIncome) error
	Delete(ctx context.Context, id string) error
}

// IncomeRequest holds payload for creating and updating external incomes.
type IncomeRequest struct {
	Source      string    `json:"source" validate:"required"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	ReceivedAt  time.Time `json:"received_at"`
	Description string    `json:"description"`
}

// IncomeService handles external income use-cases.
type IncomeService struct {
	repo      incomeRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIncomeService constructs the income service.
func NewIncomeService(repo incomeRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *IncomeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncomeService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns incomes plus pagination metadata and the filtered total.
func (s *IncomeService) List(ctx context.Context, filter models.IncomeFilter) ([]models.ExternalIncome, *models.Pagination, float64, error) {
	incomes, total, sum, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list incomes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return incomes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, sum, nil
}

// Get returns a single income record.
func (s *IncomeService) Get(ctx context.Context, id string) (*models.ExternalIncome, error) {
	income, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "income not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load income")
	}
	return income, nil
}

// Create records an external income.
func (s *IncomeService) Create(ctx context.Context, req IncomeRequest) (*models.ExternalIncome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid income payload")
	}
	income := &models.ExternalIncome{
		Source:      req.Source,
		Amount:      req.Amount,
		ReceivedAt:  req.ReceivedAt,
		Description: req.Description,
	}
	if income.ReceivedAt.IsZero() {
		income.ReceivedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, income); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create income")
	}
	s.invalidateDashboard(ctx)
	return income, nil
}

// Update modifies an external income.
func (s *IncomeService) Update(ctx context.Context, id string, req IncomeRequest) (*models.ExternalIncome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid income payload")
	}
	income, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	income.Source = req.Source
	income.Amount = req.Amount
	income.Description = req.Description
	if !req.ReceivedAt.IsZero() {
		income.ReceivedAt = req.ReceivedAt
	}
	if err := s.repo.Update(ctx, income); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update income")
	}
	s.invalidateDashboard(ctx)
	return income, nil
}

// Delete removes an external income record.
func (s *IncomeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete income")
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *IncomeService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
