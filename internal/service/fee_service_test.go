package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/repository"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

type mockFeeRepo struct {
	student models.Student
	nextSeq int64
	fees    []models.AdditionalFee
	totals  models.FeeTotals
	byID    *models.AdditionalFee
	findErr error
	updated *models.AdditionalFee
	deleted []string
}

func (m *mockFeeRepo) Record(ctx context.Context, studentID string, build repository.BuildFee) (*models.AdditionalFee, error) {
	fee, err := build(m.student, m.nextSeq)
	if err != nil {
		return nil, err
	}
	fee.ID = "fee-1"
	return fee, nil
}

func (m *mockFeeRepo) List(ctx context.Context, filter models.FeeFilter) ([]models.AdditionalFee, int, *models.FeeTotals, error) {
	return m.fees, len(m.fees), &m.totals, nil
}

func (m *mockFeeRepo) FindByID(ctx context.Context, id string) (*models.AdditionalFee, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byID, nil
}

func (m *mockFeeRepo) UpdatePaidStatus(ctx context.Context, fee *models.AdditionalFee) error {
	m.updated = fee
	return nil
}

func (m *mockFeeRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newFeeService(repo *mockFeeRepo) *FeeService {
	return NewFeeService(repo, &mockReceiptRenderer{}, nil, nil, nil, nil)
}

func TestFeeServiceRecord(t *testing.T) {
	repo := &mockFeeRepo{
		student: models.Student{ID: "stu-1", FullName: "Sara Ali", SchoolID: "sch-1"},
		nextSeq: 9,
	}
	svc := newFeeService(repo)

	fee, err := svc.Record(context.Background(), RecordFeeRequest{StudentID: "stu-1", Type: "uniform", Amount: 75000})
	require.NoError(t, err)
	assert.Equal(t, int64(9), fee.FeeNumber)
	assert.Equal(t, models.FeeTypeUniform, fee.Type)
	assert.False(t, fee.IsPaid)
	assert.Nil(t, fee.PaidDate)
}

func TestFeeServiceRecordPaidNowStampsDate(t *testing.T) {
	repo := &mockFeeRepo{student: models.Student{ID: "stu-1"}, nextSeq: 1}
	svc := newFeeService(repo)

	fee, err := svc.Record(context.Background(), RecordFeeRequest{StudentID: "stu-1", Type: "books", Amount: 30000, Paid: true})
	require.NoError(t, err)
	assert.True(t, fee.IsPaid)
	require.NotNil(t, fee.PaidDate)
}

func TestFeeServiceRecordCustomRequiresLabel(t *testing.T) {
	repo := &mockFeeRepo{student: models.Student{ID: "stu-1"}, nextSeq: 1}
	svc := newFeeService(repo)

	_, err := svc.Record(context.Background(), RecordFeeRequest{StudentID: "stu-1", Type: "custom", Amount: 10000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	fee, err := svc.Record(context.Background(), RecordFeeRequest{StudentID: "stu-1", Type: "custom", CustomLabel: "School trip", Amount: 10000})
	require.NoError(t, err)
	assert.Equal(t, "School trip", fee.CustomLabel)
	assert.Equal(t, "School trip", fee.Label())
}

func TestFeeServiceRecordUnknownType(t *testing.T) {
	svc := newFeeService(&mockFeeRepo{})

	_, err := svc.Record(context.Background(), RecordFeeRequest{StudentID: "stu-1", Type: "transport", Amount: 10000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceTogglePaid(t *testing.T) {
	repo := &mockFeeRepo{byID: &models.AdditionalFee{ID: "fee-1", Type: models.FeeTypeBooks, Amount: 30000}}
	svc := newFeeService(repo)

	fee, err := svc.TogglePaid(context.Background(), "fee-1", ToggleFeeRequest{Paid: true})
	require.NoError(t, err)
	assert.True(t, fee.IsPaid)
	require.NotNil(t, fee.PaidDate)
	require.NotNil(t, repo.updated)

	fee, err = svc.TogglePaid(context.Background(), "fee-1", ToggleFeeRequest{Paid: false})
	require.NoError(t, err)
	assert.False(t, fee.IsPaid)
	assert.Nil(t, fee.PaidDate)
}

func TestFeeServiceReceiptRequiresPaid(t *testing.T) {
	paidAt := time.Now()
	repo := &mockFeeRepo{byID: &models.AdditionalFee{ID: "fee-1", FeeNumber: 3, StudentName: "Sara Ali", Type: models.FeeTypeBooks, Amount: 30000}}
	svc := newFeeService(repo)

	_, err := svc.Receipt(context.Background(), "fee-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	repo.byID.IsPaid = true
	repo.byID.PaidDate = &paidAt
	data, err := svc.Receipt(context.Background(), "fee-1")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
