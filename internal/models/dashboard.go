package models

// FinancialSummary aggregates the headline numbers shown on the dashboard.
type FinancialSummary struct {
	SchoolCount        int64   `json:"school_count" db:"school_count"`
	StudentCount       int64   `json:"student_count" db:"student_count"`
	TotalFees          float64 `json:"total_fees" db:"total_fees"`
	TotalCollected     float64 `json:"total_collected" db:"total_collected"`
	TotalOutstanding   float64 `json:"total_outstanding"`
	AdditionalPaid     float64 `json:"additional_paid" db:"additional_paid"`
	AdditionalUnpaid   float64 `json:"additional_unpaid" db:"additional_unpaid"`
	ExternalIncomes    float64 `json:"external_incomes" db:"external_incomes"`
	MonthExpenses      float64 `json:"month_expenses"`
	NetBalance         float64 `json:"net_balance"`
	CollectionRate     float64 `json:"collection_rate"`
	Month              string  `json:"month,omitempty"`
}

// SchoolBreakdown is a per-school slice of the dashboard summary.
type SchoolBreakdown struct {
	SchoolID     string  `json:"school_id" db:"school_id"`
	SchoolName   string  `json:"school_name" db:"school_name"`
	StudentCount int64   `json:"student_count" db:"student_count"`
	TotalFees    float64 `json:"total_fees" db:"total_fees"`
	Collected    float64 `json:"collected" db:"collected"`
	Outstanding  float64 `json:"outstanding"`
}
