package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alhisab/school-fees-api/internal/models"
)

func TestExpenseRepositoryGetMonthEmpty(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewExpenseRepository(db)

	mock.ExpectQuery("SELECT month, created_at, updated_at FROM monthly_expenses WHERE month = \\$1").
		WithArgs("2026-02").
		WillReturnRows(sqlmock.NewRows([]string{"month", "created_at", "updated_at"}))

	ledger, err := repo.GetMonth(context.Background(), "2026-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-02", ledger.Month)
	assert.Empty(t, ledger.Entries)
	assert.Zero(t, ledger.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryGetMonth(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewExpenseRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT month, created_at, updated_at FROM monthly_expenses WHERE month = \\$1").
		WithArgs("2026-01").
		WillReturnRows(sqlmock.NewRows([]string{"month", "created_at", "updated_at"}).AddRow("2026-01", now, now))
	mock.ExpectQuery("SELECT (.+) FROM expense_entries WHERE month = \\$1 ORDER BY spent_at ASC, created_at ASC").
		WithArgs("2026-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "month", "description", "amount", "spent_at", "created_at", "updated_at"}).
			AddRow("e-1", "2026-01", "Electricity", 120000.0, now, now, now).
			AddRow("e-2", "2026-01", "Water", 30000.0, now, now, now))

	ledger, err := repo.GetMonth(context.Background(), "2026-01")
	require.NoError(t, err)
	assert.Len(t, ledger.Entries, 2)
	assert.Equal(t, 150000.0, ledger.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryAddEntry(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewExpenseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO monthly_expenses").
		WithArgs("2026-01", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO expense_entries").
		WithArgs(sqlmock.AnyArg(), "2026-01", "Electricity", 120000.0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &models.ExpenseEntry{Month: "2026-01", Description: "Electricity", Amount: 120000, SpentAt: time.Now()}
	require.NoError(t, repo.AddEntry(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryDeleteEntry(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewExpenseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO monthly_expenses").
		WithArgs("2026-01", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM expense_entries WHERE id = \\$1").
		WithArgs("e-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteEntry(context.Background(), "2026-01", "e-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
