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

type installmentRepository interface {
	Record(ctx context.Context, studentID string, build repository.BuildInstallment) (*models.Installment, error)
	List(ctx context.Context, filter models.InstallmentFilter) ([]models.Installment, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Installment, error)
	FindByID(ctx context.Context, id string) (*models.Installment, error)
	FindReceiptContext(ctx context.Context, id string) (*repository.ReceiptContext, error)
	Delete(ctx context.Context, id string) error
}

type receiptRenderer interface {
	Render(r export.Receipt) ([]byte, error)
}

// RecordInstallmentRequest holds payload for recording a tuition payment.
type RecordInstallmentRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Notes     string  `json:"notes"`
}

// InstallmentService handles the tuition payment use-cases.
type InstallmentService struct {
	repo      installmentRepository
	receipts  receiptRenderer
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstallmentService constructs the installment service.
func NewInstallmentService(repo installmentRepository, receipts receiptRenderer, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *InstallmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstallmentService{repo: repo, receipts: receipts, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Record accepts a payment against a student's remaining balance. The balance
// check and receipt numbering run inside the repository transaction.
func (s *InstallmentService) Record(ctx context.Context, req RecordInstallmentRequest) (*models.Installment, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordPayment("installment", "rejected", req.Amount)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid installment payload")
	}

	now := time.Now()
	installment, err := s.repo.Record(ctx, req.StudentID, func(student models.Student, totalPaid float64, seq int64) (*models.Installment, error) {
		return ledger.NewInstallment(student, totalPaid, req.Amount, seq, now, req.Notes)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordPayment("installment", "rejected", req.Amount)
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			outcome := "rejected"
			if appErr.Code == appErrors.ErrOverpayment.Code {
				outcome = "overpayment"
			}
			s.metrics.RecordPayment("installment", outcome, req.Amount)
			return nil, err
		}
		s.metrics.RecordPayment("installment", "rejected", req.Amount)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record installment")
	}

	s.metrics.RecordPayment("installment", "accepted", installment.Amount)
	s.invalidateDashboard(ctx)
	s.logger.Info("installment recorded",
		zap.String("student_id", installment.StudentID),
		zap.Int64("receipt", installment.InstallmentNumber),
		zap.Float64("amount", installment.Amount))
	return installment, nil
}

// List returns installments plus pagination metadata.
func (s *InstallmentService) List(ctx context.Context, filter models.InstallmentFilter) ([]models.Installment, *models.Pagination, error) {
	installments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list installments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return installments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single installment.
func (s *InstallmentService) Get(ctx context.Context, id string) (*models.Installment, error) {
	installment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "installment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load installment")
	}
	return installment, nil
}

// Delete removes an installment, releasing the amount back into the balance.
// The receipt number is not reused.
func (s *InstallmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete installment")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Receipt renders the printable PDF receipt for an installment.
func (s *InstallmentService) Receipt(ctx context.Context, id string) ([]byte, error) {
	rc, err := s.repo.FindReceiptContext(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "installment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load installment")
	}
	receipt := export.Receipt{
		Title:    "Tuition Payment Receipt",
		Number:   rc.InstallmentNumber,
		IssuedAt: rc.CreatedAt,
		Fields: []export.ReceiptField{
			{Label: "Student", Value: rc.StudentName},
			{Label: "School", Value: rc.SchoolName},
			{Label: "Grade", Value: fmt.Sprintf("%s / %s", rc.Grade, rc.ClassSection)},
			{Label: "Total fee", Value: fmt.Sprintf("%.2f", rc.TotalFee)},
			{Label: "Amount", Value: fmt.Sprintf("%.2f", rc.Amount)},
			{Label: "Total paid", Value: fmt.Sprintf("%.2f", rc.TotalPaid)},
			{Label: "Remaining", Value: fmt.Sprintf("%.2f", rc.TotalFee-rc.TotalPaid)},
			{Label: "Notes", Value: rc.Notes},
		},
	}
	data, err := s.receipts.Render(receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return data, nil
}

func (s *InstallmentService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
