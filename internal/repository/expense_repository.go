package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alhisab/school-fees-api/internal/models"
)

// ExpenseRepository manages the month-keyed expense ledger.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository constructs an ExpenseRepository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

type monthlyRow struct {
	Month     string    `db:"month"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetMonth assembles the expense ledger for a YYYY-MM month. A month with no
// recorded expenses returns an empty ledger rather than an error.
func (r *ExpenseRepository) GetMonth(ctx context.Context, month string) (*models.MonthlyExpenses, error) {
	var parent monthlyRow
	err := r.db.GetContext(ctx, &parent, `SELECT month, created_at, updated_at FROM monthly_expenses WHERE month = $1`, month)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.MonthlyExpenses{Month: month, Entries: []models.ExpenseEntry{}}, nil
		}
		return nil, fmt.Errorf("get monthly expenses: %w", err)
	}

	var entries []models.ExpenseEntry
	const entriesQuery = `SELECT id, month, description, amount, spent_at, created_at, updated_at
        FROM expense_entries WHERE month = $1 ORDER BY spent_at ASC, created_at ASC`
	if err := r.db.SelectContext(ctx, &entries, entriesQuery, month); err != nil {
		return nil, fmt.Errorf("list expense entries: %w", err)
	}

	ledger := &models.MonthlyExpenses{
		Month:     parent.Month,
		Entries:   entries,
		CreatedAt: parent.CreatedAt,
		UpdatedAt: parent.UpdatedAt,
	}
	for _, entry := range entries {
		ledger.Total += entry.Amount
	}
	return ledger, nil
}

// AddEntry inserts an expense entry, creating the month row when absent and
// bumping its updated_at, all in one transaction.
func (r *ExpenseRepository) AddEntry(ctx context.Context, entry *models.ExpenseEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin expense tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := touchMonth(ctx, tx, entry.Month, now); err != nil {
		return err
	}
	const insertQuery = `INSERT INTO expense_entries (id, month, description, amount, spent_at, created_at, updated_at)
        VALUES (:id, :month, :description, :amount, :spent_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, entry); err != nil {
		return fmt.Errorf("create expense entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expense tx: %w", err)
	}
	return nil
}

// FindEntry fetches a single expense entry.
func (r *ExpenseRepository) FindEntry(ctx context.Context, id string) (*models.ExpenseEntry, error) {
	const query = `SELECT id, month, description, amount, spent_at, created_at, updated_at
        FROM expense_entries WHERE id = $1`
	var entry models.ExpenseEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry modifies an expense entry and bumps the month row.
func (r *ExpenseRepository) UpdateEntry(ctx context.Context, entry *models.ExpenseEntry) error {
	now := time.Now().UTC()
	entry.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin expense tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := touchMonth(ctx, tx, entry.Month, now); err != nil {
		return err
	}
	const query = `UPDATE expense_entries SET description = :description, amount = :amount, spent_at = :spent_at, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update expense entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expense tx: %w", err)
	}
	return nil
}

// DeleteEntry removes an expense entry and bumps the month row.
func (r *ExpenseRepository) DeleteEntry(ctx context.Context, month, id string) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin expense tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := touchMonth(ctx, tx, month, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete expense entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expense tx: %w", err)
	}
	return nil
}

func touchMonth(ctx context.Context, tx *sqlx.Tx, month string, now time.Time) error {
	const query = `INSERT INTO monthly_expenses (month, created_at, updated_at) VALUES ($1, $2, $2)
        ON CONFLICT (month) DO UPDATE SET updated_at = $2`
	if _, err := tx.ExecContext(ctx, query, month, now); err != nil {
		return fmt.Errorf("touch expense month: %w", err)
	}
	return nil
}
