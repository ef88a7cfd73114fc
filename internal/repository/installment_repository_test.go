package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

func newInstallmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "full_name", "school_id", "grade", "class_section", "total_fee", "start_date", "created_at", "updated_at"}).
		AddRow("stu-1", "Sara Ali", "sch-1", "first_middle", "A", 1000000.0, now, now, now)
}

func TestInstallmentRepositoryRecord(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM students WHERE id = \\$1 FOR UPDATE").
		WithArgs("stu-1").
		WillReturnRows(studentRows())
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM installments WHERE student_id = \\$1").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(600000.0))
	mock.ExpectQuery("INSERT INTO sequences").
		WithArgs(SequenceInstallments).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))
	mock.ExpectExec("INSERT INTO installments").
		WithArgs(sqlmock.AnyArg(), int64(42), "stu-1", "Sara Ali", 400000.0, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	installment, err := repo.Record(context.Background(), "stu-1", func(student models.Student, totalPaid float64, seq int64) (*models.Installment, error) {
		assert.Equal(t, "Sara Ali", student.FullName)
		assert.Equal(t, 600000.0, totalPaid)
		return &models.Installment{
			InstallmentNumber: seq,
			StudentID:         student.ID,
			StudentName:       student.FullName,
			Amount:            400000,
			CreatedAt:         time.Now(),
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), installment.InstallmentNumber)
	assert.NotEmpty(t, installment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositoryRecordBuildErrorRollsBack(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM students WHERE id = \\$1 FOR UPDATE").
		WithArgs("stu-1").
		WillReturnRows(studentRows())
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM installments WHERE student_id = \\$1").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(600000.0))
	mock.ExpectQuery("INSERT INTO sequences").
		WithArgs(SequenceInstallments).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))
	mock.ExpectRollback()

	_, err := repo.Record(context.Background(), "stu-1", func(models.Student, float64, int64) (*models.Installment, error) {
		return nil, appErrors.ErrOverpayment
	})
	require.ErrorIs(t, err, appErrors.ErrOverpayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "installment_number", "student_id", "student_name", "amount", "notes", "created_at"}).
		AddRow("ins-1", int64(7), "stu-1", "Sara Ali", 250000.0, "", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM installments i WHERE 1=1 AND i.student_id = \\$1 ORDER BY i.created_at DESC LIMIT 20 OFFSET 0").
		WithArgs("stu-1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM installments i WHERE 1=1 AND i.student_id = \\$1").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	installments, total, err := repo.List(context.Background(), models.InstallmentFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Len(t, installments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(7), installments[0].InstallmentNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositoryFindReceiptContext(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	rows := sqlmock.NewRows([]string{"installment_number", "student_name", "amount", "notes", "created_at", "grade", "class_section", "total_fee", "school_name", "total_paid"}).
		AddRow(int64(7), "Sara Ali", 250000.0, "", time.Now(), "first_middle", "A", 1000000.0, "Al Noor", 850000.0)
	mock.ExpectQuery("SELECT i.installment_number, (.+) FROM installments i JOIN students st").
		WithArgs("ins-1").
		WillReturnRows(rows)

	rc, err := repo.FindReceiptContext(context.Background(), "ins-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rc.InstallmentNumber)
	assert.Equal(t, "Al Noor", rc.SchoolName)
	assert.Equal(t, 150000.0, rc.TotalFee-rc.TotalPaid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositorySumByStudent(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM installments WHERE student_id = \\$1").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(850000.0))

	total, err := repo.SumByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 850000.0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
