package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

type mockExpenseRepo struct {
	month   *models.MonthlyExpenses
	entry   *models.ExpenseEntry
	findErr error
	added   *models.ExpenseEntry
	updated *models.ExpenseEntry
	deleted []string
}

func (m *mockExpenseRepo) GetMonth(ctx context.Context, month string) (*models.MonthlyExpenses, error) {
	if m.month != nil {
		return m.month, nil
	}
	return &models.MonthlyExpenses{Month: month, Entries: []models.ExpenseEntry{}}, nil
}

func (m *mockExpenseRepo) AddEntry(ctx context.Context, entry *models.ExpenseEntry) error {
	entry.ID = "e-1"
	m.added = entry
	return nil
}

func (m *mockExpenseRepo) FindEntry(ctx context.Context, id string) (*models.ExpenseEntry, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.entry, nil
}

func (m *mockExpenseRepo) UpdateEntry(ctx context.Context, entry *models.ExpenseEntry) error {
	m.updated = entry
	return nil
}

func (m *mockExpenseRepo) DeleteEntry(ctx context.Context, month, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestExpenseServiceGetMonthValidation(t *testing.T) {
	svc := NewExpenseService(&mockExpenseRepo{}, nil, nil, nil)

	_, err := svc.GetMonth(context.Background(), "2026-13")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.GetMonth(context.Background(), "Jan 2026")
	require.Error(t, err)
}

func TestExpenseServiceGetMonthEmpty(t *testing.T) {
	svc := NewExpenseService(&mockExpenseRepo{}, nil, nil, nil)

	ledger, err := svc.GetMonth(context.Background(), "2026-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-02", ledger.Month)
	assert.Empty(t, ledger.Entries)
}

func TestExpenseServiceAddEntry(t *testing.T) {
	repo := &mockExpenseRepo{}
	svc := NewExpenseService(repo, nil, nil, nil)

	entry, err := svc.AddEntry(context.Background(), "2026-01", ExpenseEntryRequest{
		Description: "Electricity",
		Amount:      120000,
	})
	require.NoError(t, err)
	assert.Equal(t, "e-1", entry.ID)
	assert.Equal(t, "2026-01", entry.Month)
	assert.False(t, entry.SpentAt.IsZero())
}

func TestExpenseServiceAddEntryAllowsZeroAmount(t *testing.T) {
	svc := NewExpenseService(&mockExpenseRepo{}, nil, nil, nil)

	entry, err := svc.AddEntry(context.Background(), "2026-01", ExpenseEntryRequest{Description: "Waived repair", Amount: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, entry.Amount)
}

func TestExpenseServiceAddEntryRejectsNegativeAmount(t *testing.T) {
	svc := NewExpenseService(&mockExpenseRepo{}, nil, nil, nil)

	_, err := svc.AddEntry(context.Background(), "2026-01", ExpenseEntryRequest{Description: "Electricity", Amount: -5000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExpenseServiceUpdateEntryWrongMonth(t *testing.T) {
	repo := &mockExpenseRepo{entry: &models.ExpenseEntry{ID: "e-1", Month: "2026-01"}}
	svc := NewExpenseService(repo, nil, nil, nil)

	_, err := svc.UpdateEntry(context.Background(), "2026-02", "e-1", ExpenseEntryRequest{
		Description: "Water",
		Amount:      30000,
		SpentAt:     time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExpenseServiceDeleteEntry(t *testing.T) {
	repo := &mockExpenseRepo{entry: &models.ExpenseEntry{ID: "e-1", Month: "2026-01"}}
	svc := NewExpenseService(repo, nil, nil, nil)

	require.NoError(t, svc.DeleteEntry(context.Background(), "2026-01", "e-1"))
	assert.Equal(t, []string{"e-1"}, repo.deleted)
}

func TestExpenseServiceDeleteEntryNotFound(t *testing.T) {
	svc := NewExpenseService(&mockExpenseRepo{findErr: sql.ErrNoRows}, nil, nil, nil)

	err := svc.DeleteEntry(context.Background(), "2026-01", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
