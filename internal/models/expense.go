package models

import "time"

// ExpenseEntry is a single outgoing amount recorded within a month.
type ExpenseEntry struct {
	ID          string    `db:"id" json:"id"`
	Month       string    `db:"month" json:"-"`
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
	SpentAt     time.Time `db:"spent_at" json:"spent_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MonthlyExpenses groups the expense entries of one calendar month, keyed by
// its YYYY-MM identifier.
type MonthlyExpenses struct {
	Month     string         `json:"month"`
	Entries   []ExpenseEntry `json:"entries"`
	Total     float64        `json:"total"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
