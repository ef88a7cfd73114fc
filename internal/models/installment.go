package models

import "time"

// Installment is a single tuition payment counted against a student's total fee.
// StudentName is a point-in-time snapshot taken at creation for receipt display;
// the student record remains the authoritative source for the current name.
type Installment struct {
	ID                string    `db:"id" json:"id"`
	InstallmentNumber int64     `db:"installment_number" json:"installment_number"`
	StudentID         string    `db:"student_id" json:"student_id"`
	StudentName       string    `db:"student_name" json:"student_name"`
	Amount            float64   `db:"amount" json:"amount"`
	Notes             string    `db:"notes" json:"notes"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// InstallmentFilter narrows global installment listings.
type InstallmentFilter struct {
	StudentID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Balance summarises a student's ledger position.
type Balance struct {
	TotalFee  float64 `json:"total_fee"`
	TotalPaid float64 `json:"total_paid"`
	Remaining float64 `json:"remaining"`
}
