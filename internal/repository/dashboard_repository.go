package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/alhisab/school-fees-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary computes the headline financial numbers. When month is non-empty
// the expense total is scoped to that month, otherwise it covers all months.
func (r *DashboardRepository) Summary(ctx context.Context, month string) (*models.FinancialSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM schools)                                                        AS school_count,
			(SELECT COUNT(*) FROM students)                                                       AS student_count,
			(SELECT COALESCE(SUM(total_fee), 0) FROM students)                                    AS total_fees,
			(SELECT COALESCE(SUM(amount), 0) FROM installments)                                   AS total_collected,
			(SELECT COALESCE(SUM(amount), 0) FROM additional_fees WHERE is_paid)                  AS additional_paid,
			(SELECT COALESCE(SUM(amount), 0) FROM additional_fees WHERE NOT is_paid)              AS additional_unpaid,
			(SELECT COALESCE(SUM(amount), 0) FROM external_incomes)                               AS external_incomes`

	summary := &models.FinancialSummary{}
	if err := r.db.GetContext(ctx, summary, query); err != nil {
		return nil, fmt.Errorf("query dashboard summary: %w", err)
	}

	expenseQuery := "SELECT COALESCE(SUM(amount), 0) FROM expense_entries"
	args := []interface{}{}
	if month != "" {
		expenseQuery += " WHERE month = $1"
		args = append(args, month)
	}
	if err := r.db.GetContext(ctx, &summary.MonthExpenses, expenseQuery, args...); err != nil {
		return nil, fmt.Errorf("query dashboard expenses: %w", err)
	}

	summary.Month = month
	summary.TotalOutstanding = summary.TotalFees - summary.TotalCollected
	if summary.TotalOutstanding < 0 {
		summary.TotalOutstanding = 0
	}
	if summary.TotalFees > 0 {
		summary.CollectionRate = summary.TotalCollected / summary.TotalFees * 100
	}
	summary.NetBalance = summary.TotalCollected + summary.AdditionalPaid + summary.ExternalIncomes - summary.MonthExpenses

	return summary, nil
}

// SchoolBreakdown returns per-school student counts and collection totals.
func (r *DashboardRepository) SchoolBreakdown(ctx context.Context) ([]models.SchoolBreakdown, error) {
	query := `
		SELECT
			s.id                                   AS school_id,
			s.name_english                              AS school_name,
			COUNT(st.id)                           AS student_count,
			COALESCE(SUM(st.total_fee), 0)         AS total_fees,
			COALESCE((
				SELECT SUM(i.amount)
				FROM installments i
				JOIN students si ON si.id = i.student_id
				WHERE si.school_id = s.id
			), 0)                                  AS collected
		FROM schools s
		LEFT JOIN students st ON st.school_id = s.id
		GROUP BY s.id, s.name_english
		ORDER BY s.name_english ASC`

	rows := []models.SchoolBreakdown{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query school breakdown: %w", err)
	}

	for i := range rows {
		rows[i].Outstanding = rows[i].TotalFees - rows[i].Collected
		if rows[i].Outstanding < 0 {
			rows[i].Outstanding = 0
		}
	}

	return rows, nil
}
