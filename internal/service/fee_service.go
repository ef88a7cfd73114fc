package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alhisab/school-fees-api/internal/ledger"
	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/repository"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
	"github.com/alhisab/school-fees-api/pkg/export"
)

type feeRepository interface {
	Record(ctx context.Context, studentID string, build repository.BuildFee) (*models.AdditionalFee, error)
	List(ctx context.Context, filter models.FeeFilter) ([]models.AdditionalFee, int, *models.FeeTotals, error)
	FindByID(ctx context.Context, id string) (*models.AdditionalFee, error)
	UpdatePaidStatus(ctx context.Context, fee *models.AdditionalFee) error
	Delete(ctx context.Context, id string) error
}

// RecordFeeRequest holds payload for charging an additional fee.
type RecordFeeRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=registration uniform books custom"`
	CustomLabel string  `json:"custom_label"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Paid        bool    `json:"paid"`
	Notes       string  `json:"notes"`
}

// ToggleFeeRequest flips the paid state of a fee.
type ToggleFeeRequest struct {
	Paid bool `json:"paid"`
}

// FeeService handles additional fee use-cases.
type FeeService struct {
	repo      feeRepository
	receipts  receiptRenderer
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs the fee service.
func NewFeeService(repo feeRepository, receipts receiptRenderer, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{repo: repo, receipts: receipts, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Record charges an additional fee to a student. Fees are independent of the
// tuition ceiling; the fee number allocation shares the insert transaction.
func (s *FeeService) Record(ctx context.Context, req RecordFeeRequest) (*models.AdditionalFee, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordPayment("additional_fee", "rejected", req.Amount)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	now := time.Now()
	fee, err := s.repo.Record(ctx, req.StudentID, func(student models.Student, seq int64) (*models.AdditionalFee, error) {
		return ledger.NewAdditionalFee(student, models.FeeType(req.Type), req.CustomLabel, req.Amount, req.Paid, seq, now, req.Notes)
	})
	if err != nil {
		s.metrics.RecordPayment("additional_fee", "rejected", req.Amount)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record fee")
	}

	s.metrics.RecordPayment("additional_fee", "accepted", fee.Amount)
	s.invalidateDashboard(ctx)
	s.logger.Info("additional fee recorded",
		zap.String("student_id", fee.StudentID),
		zap.Int64("fee_number", fee.FeeNumber),
		zap.String("type", string(fee.Type)))
	return fee, nil
}

// List returns fees, pagination metadata and paid/unpaid totals.
func (s *FeeService) List(ctx context.Context, filter models.FeeFilter) ([]models.AdditionalFee, *models.Pagination, *models.FeeTotals, error) {
	if filter.Type != "" && !models.ValidFeeType(models.FeeType(filter.Type)) {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee type")
	}
	fees, total, totals, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return fees, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, totals, nil
}

// Get returns a single fee.
func (s *FeeService) Get(ctx context.Context, id string) (*models.AdditionalFee, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}
	return fee, nil
}

// TogglePaid flips the paid flag, stamping or clearing the paid date.
func (s *FeeService) TogglePaid(ctx context.Context, id string, req ToggleFeeRequest) (*models.AdditionalFee, error) {
	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ledger.TogglePaid(fee, req.Paid, time.Now())
	if err := s.repo.UpdatePaidStatus(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee")
	}
	s.invalidateDashboard(ctx)
	return fee, nil
}

// Delete removes a fee. The fee number is not reused.
func (s *FeeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Receipt renders the printable PDF receipt for a paid fee.
func (s *FeeService) Receipt(ctx context.Context, id string) ([]byte, error) {
	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !fee.IsPaid {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fee is not paid yet")
	}
	receipt := export.Receipt{
		Title:    "Additional Fee Receipt",
		Number:   fee.FeeNumber,
		IssuedAt: fee.CreatedAt,
		Fields: []export.ReceiptField{
			{Label: "Student", Value: fee.StudentName},
			{Label: "Fee", Value: fee.Label()},
			{Label: "Amount", Value: fmt.Sprintf("%.2f", fee.Amount)},
			{Label: "Notes", Value: fee.Notes},
		},
	}
	data, err := s.receipts.Render(receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return data, nil
}

func (s *FeeService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
