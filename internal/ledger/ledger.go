// Package ledger holds the pure reconciliation rules for student payment
// ledgers: balance computation, the tuition ceiling check, and the stamping of
// new installment and additional fee records. Nothing in this package touches
// storage; callers persist the returned records inside their own transaction.
package ledger

import (
	"strings"
	"time"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

// ComputeBalance sums the given installment amounts against the student's
// total fee. TotalPaid + Remaining always equals TotalFee.
func ComputeBalance(totalFee float64, installments []models.Installment) models.Balance {
	var paid float64
	for _, inst := range installments {
		paid += inst.Amount
	}
	return models.Balance{TotalFee: totalFee, TotalPaid: paid, Remaining: totalFee - paid}
}

// NewInstallment validates a payment request against the remaining balance and
// returns the record to persist, stamped with the allocated receipt number and
// a snapshot of the student's current name.
func NewInstallment(student models.Student, totalPaid, amount float64, seq int64, now time.Time, notes string) (*models.Installment, error) {
	if amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "installment amount must be greater than zero")
	}
	remaining := student.TotalFee - totalPaid
	if amount > remaining {
		return nil, appErrors.Clone(appErrors.ErrOverpayment, "amount exceeds remaining balance")
	}
	return &models.Installment{
		InstallmentNumber: seq,
		StudentID:         student.ID,
		StudentName:       student.FullName,
		Amount:            amount,
		Notes:             notes,
		CreatedAt:         now.UTC(),
	}, nil
}

// NewAdditionalFee validates and stamps a fee independent of the tuition
// ceiling. A custom fee requires a non-empty label; the built-in types ignore
// the label. PaidDate is set exactly when the fee is created already paid.
func NewAdditionalFee(student models.Student, feeType models.FeeType, customLabel string, amount float64, paidNow bool, seq int64, now time.Time, notes string) (*models.AdditionalFee, error) {
	if amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fee amount must be greater than zero")
	}
	if !models.ValidFeeType(feeType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee type")
	}
	label := strings.TrimSpace(customLabel)
	if feeType == models.FeeTypeCustom && label == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "custom fee requires a label")
	}
	if feeType != models.FeeTypeCustom {
		label = ""
	}
	fee := &models.AdditionalFee{
		FeeNumber:   seq,
		StudentID:   student.ID,
		StudentName: student.FullName,
		SchoolID:    student.SchoolID,
		Type:        feeType,
		CustomLabel: label,
		Amount:      amount,
		IsPaid:      paidNow,
		Notes:       notes,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if paidNow {
		paidAt := now.UTC()
		fee.PaidDate = &paidAt
	}
	return fee, nil
}

// TogglePaid flips the paid flag, stamping PaidDate when the fee becomes paid
// and clearing it when it becomes unpaid. No other field changes.
func TogglePaid(fee *models.AdditionalFee, status bool, now time.Time) {
	fee.IsPaid = status
	if status {
		paidAt := now.UTC()
		fee.PaidDate = &paidAt
	} else {
		fee.PaidDate = nil
	}
	fee.UpdatedAt = now.UTC()
}
