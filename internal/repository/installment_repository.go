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

// InstallmentRepository manages persistence for tuition installments.
type InstallmentRepository struct {
	db *sqlx.DB
}

// NewInstallmentRepository constructs an InstallmentRepository.
func NewInstallmentRepository(db *sqlx.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

// BuildInstallment produces the record to insert given the ledger state read
// inside the transaction. Returning an error aborts the transaction, which
// also releases the allocated receipt number.
type BuildInstallment func(student models.Student, totalPaid float64, seq int64) (*models.Installment, error)

// Record runs the full payment transaction: the student row is locked, the
// paid total and the next receipt number are read under that lock, and the
// record returned by build is inserted. Concurrent payments for the same
// student serialise on the row lock, so the ceiling check in build sees a
// consistent balance and receipt numbers never duplicate.
func (r *InstallmentRepository) Record(ctx context.Context, studentID string, build BuildInstallment) (*models.Installment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin installment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var student models.Student
	const studentQuery = `SELECT id, full_name, school_id, grade, class_section, total_fee, start_date, created_at, updated_at
        FROM students WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &student, studentQuery, studentID); err != nil {
		return nil, err
	}

	var totalPaid float64
	if err := tx.GetContext(ctx, &totalPaid, `SELECT COALESCE(SUM(amount), 0) FROM installments WHERE student_id = $1`, studentID); err != nil {
		return nil, fmt.Errorf("sum installments: %w", err)
	}

	seq, err := nextSequence(ctx, tx, SequenceInstallments)
	if err != nil {
		return nil, err
	}

	installment, err := build(student, totalPaid, seq)
	if err != nil {
		return nil, err
	}
	if installment.ID == "" {
		installment.ID = uuid.NewString()
	}

	const insertQuery = `INSERT INTO installments (id, installment_number, student_id, student_name, amount, notes, created_at)
        VALUES (:id, :installment_number, :student_id, :student_name, :amount, :notes, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, installment); err != nil {
		return nil, fmt.Errorf("create installment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit installment tx: %w", err)
	}
	return installment, nil
}

// List returns installments matching the provided filters.
func (r *InstallmentRepository) List(ctx context.Context, filter models.InstallmentFilter) ([]models.Installment, int, error) {
	base := "FROM installments i"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"installment_number": "i.installment_number",
		"amount":             "i.amount",
		"created_at":         "i.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "i.created_at"
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

	query := fmt.Sprintf(`SELECT i.id, i.installment_number, i.student_id, i.student_name, i.amount, i.notes, i.created_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var installments []models.Installment
	if err := r.db.SelectContext(ctx, &installments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list installments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count installments: %w", err)
	}
	return installments, total, nil
}

// ListByStudent returns every installment for the student, newest first.
func (r *InstallmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Installment, error) {
	const query = `SELECT id, installment_number, student_id, student_name, amount, notes, created_at
        FROM installments WHERE student_id = $1 ORDER BY created_at DESC`
	var installments []models.Installment
	if err := r.db.SelectContext(ctx, &installments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student installments: %w", err)
	}
	return installments, nil
}

// FindByID fetches an installment by ID.
func (r *InstallmentRepository) FindByID(ctx context.Context, id string) (*models.Installment, error) {
	const query = `SELECT id, installment_number, student_id, student_name, amount, notes, created_at
        FROM installments WHERE id = $1`
	var installment models.Installment
	if err := r.db.GetContext(ctx, &installment, query, id); err != nil {
		return nil, err
	}
	return &installment, nil
}

// SumByStudent returns the paid total for a student.
func (r *InstallmentRepository) SumByStudent(ctx context.Context, studentID string) (float64, error) {
	var total float64
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM installments WHERE student_id = $1`, studentID); err != nil {
		return 0, fmt.Errorf("sum installments: %w", err)
	}
	return total, nil
}

// Delete removes an installment row.
func (r *InstallmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM installments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete installment: %w", err)
	}
	return nil
}

// ReceiptContext carries the installment joined with the student and school
// columns a printed receipt shows, plus the student's paid total.
type ReceiptContext struct {
	InstallmentNumber int64     `db:"installment_number"`
	StudentName       string    `db:"student_name"`
	Amount            float64   `db:"amount"`
	Notes             string    `db:"notes"`
	CreatedAt         time.Time `db:"created_at"`
	Grade             string    `db:"grade"`
	ClassSection      string    `db:"class_section"`
	TotalFee          float64   `db:"total_fee"`
	TotalPaid         float64   `db:"total_paid"`
	SchoolName        string    `db:"school_name"`
}

// FindReceiptContext loads everything a receipt needs in one query.
func (r *InstallmentRepository) FindReceiptContext(ctx context.Context, id string) (*ReceiptContext, error) {
	const query = `SELECT i.installment_number, i.student_name, i.amount, i.notes, i.created_at,
        st.grade, st.class_section, st.total_fee, sc.name_english AS school_name,
        (SELECT COALESCE(SUM(amount), 0) FROM installments WHERE student_id = i.student_id) AS total_paid
        FROM installments i
        JOIN students st ON st.id = i.student_id
        JOIN schools sc ON sc.id = st.school_id
        WHERE i.id = $1`
	var rc ReceiptContext
	if err := r.db.GetContext(ctx, &rc, query, id); err != nil {
		return nil, err
	}
	return &rc, nil
}

// ExportRow is a denormalised installment line used by report generation.
type ExportRow struct {
	ReceiptNumber int64   `db:"installment_number"`
	StudentName   string  `db:"student_name"`
	Grade         string  `db:"grade"`
	ClassSection  string  `db:"class_section"`
	Amount        float64 `db:"amount"`
	CreatedAt     string  `db:"created_at"`
}

// ListForExport returns installment lines for a school (or all schools when
// schoolID is empty), oldest first so receipts appear in issue order.
func (r *InstallmentRepository) ListForExport(ctx context.Context, schoolID string) ([]ExportRow, error) {
	query := `SELECT i.installment_number, i.student_name, s.grade, s.class_section, i.amount,
        TO_CHAR(i.created_at, 'YYYY-MM-DD') AS created_at
        FROM installments i JOIN students s ON s.id = i.student_id`
	args := []interface{}{}
	if schoolID != "" {
		query += " WHERE s.school_id = $1"
		args = append(args, schoolID)
	}
	query += " ORDER BY i.installment_number ASC"

	var rows []ExportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list installments for export: %w", err)
	}
	return rows, nil
}
