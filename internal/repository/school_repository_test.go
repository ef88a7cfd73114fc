package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alhisab/school-fees-api/internal/models"
)

func TestSchoolRepositoryList(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name_arabic", "name_english", "types", "address", "phone", "principal_name", "created_at", "updated_at"}).
		AddRow("sch-1", "مدرسة النور", "Al Noor School", pq.StringArray{"middle", "high"}, "Main St", "07700000000", "Ali Hassan", now, now)
	mock.ExpectQuery("SELECT (.+) FROM schools s WHERE 1=1 AND \\$1 = ANY\\(s.types\\) ORDER BY s.created_at DESC LIMIT 20 OFFSET 0").
		WithArgs("middle").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM schools s WHERE 1=1 AND \\$1 = ANY\\(s.types\\)").
		WithArgs("middle").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schools, total, err := repo.List(context.Background(), models.SchoolFilter{Type: "middle"})
	require.NoError(t, err)
	assert.Len(t, schools, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Al Noor School", schools[0].NameEnglish)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec("INSERT INTO schools").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	school := &models.School{NameArabic: "مدرسة النور", NameEnglish: "Al Noor School", Types: pq.StringArray{"middle"}}
	require.NoError(t, repo.Create(context.Background(), school))
	assert.NotEmpty(t, school.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryCountStudents(t *testing.T) {
	db, mock, cleanup := newInstallmentMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students WHERE school_id = \\$1").
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountStudents(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
