package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alhisab/school-fees-api/internal/models"
)

// IncomeRepository manages persistence for external income records.
type IncomeRepository struct {
	db *sqlx.DB
}

// NewIncomeRepository constructs an IncomeRepository.
func NewIncomeRepository(db *sqlx.DB) *IncomeRepository {
	return &IncomeRepository{db: db}
}

// List returns external incomes matching the filters plus the running total
// over the same filter.
func (r *IncomeRepository) List(ctx context.Context, filter models.IncomeFilter) ([]models.ExternalIncome, int, float64, error) {
	base := "FROM external_incomes e"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(e.source) LIKE $%d OR LOWER(e.description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("e.received_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("e.received_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"source":      "e.source",
		"amount":      "e.amount",
		"received_at": "e.received_at",
		"created_at":  "e.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "e.received_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.source, e.amount, e.received_at, e.description, e.created_at, e.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var incomes []models.ExternalIncome
	if err := r.db.SelectContext(ctx, &incomes, query, args...); err != nil {
		return nil, 0, 0, fmt.Errorf("list external incomes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, 0, fmt.Errorf("count external incomes: %w", err)
	}

	sumQuery := fmt.Sprintf("SELECT COALESCE(SUM(e.amount), 0) %s", base)
	var sum float64
	if err := r.db.GetContext(ctx, &sum, sumQuery, args...); err != nil {
		return nil, 0, 0, fmt.Errorf("sum external incomes: %w", err)
	}
	return incomes, total, sum, nil
}

// FindByID fetches an income record by ID.
func (r *IncomeRepository) FindByID(ctx context.Context, id string) (*models.ExternalIncome, error) {
	const query = `SELECT id, source, amount, received_at, description, created_at, updated_at
        FROM external_incomes WHERE id = $1`
	var income models.ExternalIncome
	if err := r.db.GetContext(ctx, &income, query, id); err != nil {
		return nil, err
	}
	return &income, nil
}

// Create inserts a new income record.
func (r *IncomeRepository) Create(ctx context.Context, income *models.ExternalIncome) error {
	if income.ID == "" {
		income.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if income.CreatedAt.IsZero() {
		income.CreatedAt = now
	}
	income.UpdatedAt = now
	const query = `INSERT INTO external_incomes (id, source, amount, received_at, description, created_at, updated_at)
        VALUES (:id, :source, :amount, :received_at, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, income); err != nil {
		return fmt.Errorf("create external income: %w", err)
	}
	return nil
}

// Update modifies an existing income record.
func (r *IncomeRepository) Update(ctx context.Context, income *models.ExternalIncome) error {
	income.UpdatedAt = time.Now().UTC()
	const query = `UPDATE external_incomes SET source = :source, amount = :amount, received_at = :received_at,
        description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, income); err != nil {
		return fmt.Errorf("update external income: %w", err)
	}
	return nil
}

// Delete removes an income row.
func (r *IncomeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM external_incomes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete external income: %w", err)
	}
	return nil
}
