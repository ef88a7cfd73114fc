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

func TestFeeRepositoryRecord(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM students WHERE id = \\$1").
		WithArgs("stu-1").
		WillReturnRows(studentRows())
	mock.ExpectQuery("INSERT INTO sequences").
		WithArgs(SequenceAdditionalFees).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(9))
	mock.ExpectExec("INSERT INTO additional_fees").
		WithArgs(sqlmock.AnyArg(), int64(9), "stu-1", "Sara Ali", "sch-1", string(models.FeeTypeUniform), "", 75000.0, false, nil, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	now := time.Now()
	fee, err := repo.Record(context.Background(), "stu-1", func(student models.Student, seq int64) (*models.AdditionalFee, error) {
		return &models.AdditionalFee{
			FeeNumber:   seq,
			StudentID:   student.ID,
			StudentName: student.FullName,
			SchoolID:    student.SchoolID,
			Type:        models.FeeTypeUniform,
			Amount:      75000,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), fee.FeeNumber)
	assert.NotEmpty(t, fee.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryList(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "fee_number", "student_id", "student_name", "school_id", "fee_type", "custom_label", "amount", "is_paid", "paid_date", "notes", "created_at", "updated_at"}).
		AddRow("fee-1", int64(3), "stu-1", "Sara Ali", "sch-1", "books", "", 50000.0, true, now, "", now, now)
	mock.ExpectQuery("SELECT (.+) FROM additional_fees f WHERE 1=1 AND f.school_id = \\$1 ORDER BY f.created_at DESC LIMIT 20 OFFSET 0").
		WithArgs("sch-1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM additional_fees f WHERE 1=1 AND f.school_id = \\$1").
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT(.+)FILTER(.+)FROM additional_fees f WHERE 1=1 AND f.school_id = \\$1").
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"paid_amount", "unpaid_amount", "paid_count", "unpaid_count"}).AddRow(50000.0, 0.0, 1, 0))

	fees, total, totals, err := repo.List(context.Background(), models.FeeFilter{SchoolID: "sch-1"})
	require.NoError(t, err)
	assert.Len(t, fees, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 50000.0, totals.PaidAmount)
	assert.Equal(t, 1, totals.PaidCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryUpdatePaidStatus(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	now := time.Now()
	mock.ExpectExec("UPDATE additional_fees SET is_paid").
		WithArgs(true, now, sqlmock.AnyArg(), "fee-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	fee := &models.AdditionalFee{ID: "fee-1", IsPaid: true, PaidDate: &now, UpdatedAt: now}
	require.NoError(t, repo.UpdatePaidStatus(context.Background(), fee))
	assert.NoError(t, mock.ExpectationsWereMet())
}
