package models

import "time"

// FeeType enumerates the built-in additional fee kinds.
type FeeType string

const (
	FeeTypeRegistration FeeType = "registration"
	FeeTypeUniform      FeeType = "uniform"
	FeeTypeBooks        FeeType = "books"
	FeeTypeCustom       FeeType = "custom"
)

// ValidFeeType reports whether the value is a known fee type.
func ValidFeeType(t FeeType) bool {
	switch t {
	case FeeTypeRegistration, FeeTypeUniform, FeeTypeBooks, FeeTypeCustom:
		return true
	default:
		return false
	}
}

// AdditionalFee is a charge independent of tuition (registration, uniform,
// books, or a custom labelled fee). PaidDate is set exactly while IsPaid is true.
type AdditionalFee struct {
	ID          string     `db:"id" json:"id"`
	FeeNumber   int64      `db:"fee_number" json:"fee_number"`
	StudentID   string     `db:"student_id" json:"student_id"`
	StudentName string     `db:"student_name" json:"student_name"`
	SchoolID    string     `db:"school_id" json:"school_id"`
	Type        FeeType    `db:"fee_type" json:"type"`
	CustomLabel string     `db:"custom_label" json:"custom_label,omitempty"`
	Amount      float64    `db:"amount" json:"amount"`
	IsPaid      bool       `db:"is_paid" json:"is_paid"`
	PaidDate    *time.Time `db:"paid_date" json:"paid_date,omitempty"`
	Notes       string     `db:"notes" json:"notes"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Label resolves the display name of the fee, honouring custom labels.
func (f AdditionalFee) Label() string {
	if f.Type == FeeTypeCustom && f.CustomLabel != "" {
		return f.CustomLabel
	}
	return string(f.Type)
}

// FeeFilter narrows additional fee listings.
type FeeFilter struct {
	SchoolID  string
	StudentID string
	Type      string
	Paid      *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// FeeTotals aggregates paid/unpaid amounts for a filtered fee set.
type FeeTotals struct {
	PaidAmount   float64 `db:"paid_amount" json:"paid_amount"`
	UnpaidAmount float64 `db:"unpaid_amount" json:"unpaid_amount"`
	PaidCount    int     `db:"paid_count" json:"paid_count"`
	UnpaidCount  int     `db:"unpaid_count" json:"unpaid_count"`
}
