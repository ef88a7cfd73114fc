package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

func errCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	return appErr.Code
}

func TestComputeBalance(t *testing.T) {
	installments := []models.Installment{{Amount: 600000}, {Amount: 150000}}
	balance := ComputeBalance(1000000, installments)

	assert.Equal(t, float64(750000), balance.TotalPaid)
	assert.Equal(t, float64(250000), balance.Remaining)
	assert.Equal(t, balance.TotalFee, balance.TotalPaid+balance.Remaining)

	// pure: same inputs, same output
	again := ComputeBalance(1000000, installments)
	assert.Equal(t, balance, again)
}

func TestComputeBalanceEmpty(t *testing.T) {
	balance := ComputeBalance(500000, nil)
	assert.Equal(t, float64(0), balance.TotalPaid)
	assert.Equal(t, float64(500000), balance.Remaining)
}

func TestNewInstallmentRejectsNonPositiveAmounts(t *testing.T) {
	student := models.Student{ID: "st-1", FullName: "Ali Hassan", TotalFee: 1000000}
	for _, amount := range []float64{0, -500} {
		_, err := NewInstallment(student, 0, amount, 1, time.Now(), "")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, errCode(t, err))
	}
}

func TestNewInstallmentRejectsOverpayment(t *testing.T) {
	student := models.Student{ID: "st-1", FullName: "Ali Hassan", TotalFee: 1000000}
	_, err := NewInstallment(student, 600000, 500000, 2, time.Now(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverpayment.Code, errCode(t, err))
}

func TestNewInstallmentStampsRecord(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	student := models.Student{ID: "st-1", FullName: "Ali Hassan", TotalFee: 1000000}

	inst, err := NewInstallment(student, 200000, 300000, 42, now, "september")
	require.NoError(t, err)
	assert.Equal(t, int64(42), inst.InstallmentNumber)
	assert.Equal(t, "st-1", inst.StudentID)
	assert.Equal(t, "Ali Hassan", inst.StudentName)
	assert.Equal(t, float64(300000), inst.Amount)
	assert.Equal(t, now, inst.CreatedAt)
	assert.Equal(t, "september", inst.Notes)
}

func TestInstallmentCeilingWalkDown(t *testing.T) {
	student := models.Student{ID: "st-1", FullName: "Ali Hassan", TotalFee: 1000000}
	var recorded []models.Installment

	first, err := NewInstallment(student, ComputeBalance(student.TotalFee, recorded).TotalPaid, 600000, 1, time.Now(), "")
	require.NoError(t, err)
	recorded = append(recorded, *first)
	assert.Equal(t, float64(400000), ComputeBalance(student.TotalFee, recorded).Remaining)

	_, err = NewInstallment(student, ComputeBalance(student.TotalFee, recorded).TotalPaid, 500000, 2, time.Now(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverpayment.Code, errCode(t, err))

	second, err := NewInstallment(student, ComputeBalance(student.TotalFee, recorded).TotalPaid, 400000, 2, time.Now(), "")
	require.NoError(t, err)
	recorded = append(recorded, *second)
	assert.Equal(t, float64(0), ComputeBalance(student.TotalFee, recorded).Remaining)

	_, err = NewInstallment(student, ComputeBalance(student.TotalFee, recorded).TotalPaid, 1, 3, time.Now(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverpayment.Code, errCode(t, err))

	var sum float64
	for _, inst := range recorded {
		sum += inst.Amount
	}
	assert.LessOrEqual(t, sum, student.TotalFee)
}

func TestNewAdditionalFeeCustomLabelRequired(t *testing.T) {
	student := models.Student{ID: "st-1", FullName: "Ali Hassan", SchoolID: "sc-1"}

	_, err := NewAdditionalFee(student, models.FeeTypeCustom, "  ", 50000, false, 1, time.Now(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(t, err))

	fee, err := NewAdditionalFee(student, models.FeeTypeCustom, "field trip", 50000, false, 1, time.Now(), "")
	require.NoError(t, err)
	assert.Equal(t, "field trip", fee.CustomLabel)
	assert.Equal(t, "field trip", fee.Label())
}

func TestNewAdditionalFeeNoCeilingCheck(t *testing.T) {
	student := models.Student{ID: "st-1", FullName: "Ali Hassan", SchoolID: "sc-1", TotalFee: 100}

	// fees are independent of tuition; amount above total fee is fine
	fee, err := NewAdditionalFee(student, models.FeeTypeBooks, "", 50000, false, 7, time.Now(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), fee.FeeNumber)
	assert.False(t, fee.IsPaid)
	assert.Nil(t, fee.PaidDate)
	assert.Equal(t, "sc-1", fee.SchoolID)
}

func TestNewAdditionalFeeRejectsNonPositiveAmount(t *testing.T) {
	student := models.Student{ID: "st-1", SchoolID: "sc-1"}
	_, err := NewAdditionalFee(student, models.FeeTypeUniform, "", 0, false, 1, time.Now(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(t, err))
}

func TestNewAdditionalFeePaidNowStampsPaidDate(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	student := models.Student{ID: "st-1", SchoolID: "sc-1"}

	fee, err := NewAdditionalFee(student, models.FeeTypeRegistration, "", 25000, true, 1, now, "")
	require.NoError(t, err)
	assert.True(t, fee.IsPaid)
	require.NotNil(t, fee.PaidDate)
	assert.Equal(t, now, *fee.PaidDate)
}

func TestTogglePaid(t *testing.T) {
	created := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	toggledAt := time.Date(2025, 9, 3, 12, 30, 0, 0, time.UTC)
	fee := models.AdditionalFee{Amount: 50000, CreatedAt: created, UpdatedAt: created}

	TogglePaid(&fee, true, toggledAt)
	assert.True(t, fee.IsPaid)
	require.NotNil(t, fee.PaidDate)
	assert.Equal(t, toggledAt, *fee.PaidDate)

	TogglePaid(&fee, false, toggledAt.Add(time.Hour))
	assert.False(t, fee.IsPaid)
	assert.Nil(t, fee.PaidDate)

	// toggling twice restores the flag but re-stamps the date
	later := toggledAt.Add(48 * time.Hour)
	TogglePaid(&fee, true, later)
	require.NotNil(t, fee.PaidDate)
	assert.Equal(t, later, *fee.PaidDate)
}
