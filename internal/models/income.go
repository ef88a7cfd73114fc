package models

import "time"

// ExternalIncome records money received outside tuition and fees
// (donations, hall rental, canteen, and similar sources).
type ExternalIncome struct {
	ID          string    `db:"id" json:"id"`
	Source      string    `db:"source" json:"source"`
	Amount      float64   `db:"amount" json:"amount"`
	ReceivedAt  time.Time `db:"received_at" json:"received_at"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IncomeFilter narrows external income listings.
type IncomeFilter struct {
	Search    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
