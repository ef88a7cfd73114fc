package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alhisab/school-fees-api/internal/models"
)

// FeeRepository manages persistence for additional fees.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// BuildFee produces the fee record to insert given the student read inside
// the transaction and the allocated fee number.
type BuildFee func(student models.Student, seq int64) (*models.AdditionalFee, error)

// Record creates an additional fee inside one transaction so the fee number
// allocation and the insert commit or roll back together. Additional fees
// carry no tuition ceiling, so no balance is read here.
func (r *FeeRepository) Record(ctx context.Context, studentID string, build BuildFee) (*models.AdditionalFee, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin fee tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var student models.Student
	const studentQuery = `SELECT id, full_name, school_id, grade, class_section, total_fee, start_date, created_at, updated_at
        FROM students WHERE id = $1`
	if err := tx.GetContext(ctx, &student, studentQuery, studentID); err != nil {
		return nil, err
	}

	seq, err := nextSequence(ctx, tx, SequenceAdditionalFees)
	if err != nil {
		return nil, err
	}

	fee, err := build(student, seq)
	if err != nil {
		return nil, err
	}
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}

	const insertQuery = `INSERT INTO additional_fees (id, fee_number, student_id, student_name, school_id, fee_type, custom_label, amount, is_paid, paid_date, notes, created_at, updated_at)
        VALUES (:id, :fee_number, :student_id, :student_name, :school_id, :fee_type, :custom_label, :amount, :is_paid, :paid_date, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, fee); err != nil {
		return nil, fmt.Errorf("create additional fee: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fee tx: %w", err)
	}
	return fee, nil
}

// List returns additional fees matching the provided filters together with
// paid/unpaid totals over the same filter.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.AdditionalFee, int, *models.FeeTotals, error) {
	base := "FROM additional_fees f"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("f.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("f.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("f.fee_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Paid != nil {
		conditions = append(conditions, fmt.Sprintf("f.is_paid = $%d", len(args)+1))
		args = append(args, *filter.Paid)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"fee_number": "f.fee_number",
		"amount":     "f.amount",
		"created_at": "f.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "f.created_at"
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

	query := fmt.Sprintf(`SELECT f.id, f.fee_number, f.student_id, f.student_name, f.school_id, f.fee_type, f.custom_label, f.amount, f.is_paid, f.paid_date, f.notes, f.created_at, f.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var fees []models.AdditionalFee
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, nil, fmt.Errorf("list additional fees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, nil, fmt.Errorf("count additional fees: %w", err)
	}

	totalsQuery := fmt.Sprintf(`SELECT
        COALESCE(SUM(f.amount) FILTER (WHERE f.is_paid), 0) AS paid_amount,
        COALESCE(SUM(f.amount) FILTER (WHERE NOT f.is_paid), 0) AS unpaid_amount,
        COUNT(*) FILTER (WHERE f.is_paid) AS paid_count,
        COUNT(*) FILTER (WHERE NOT f.is_paid) AS unpaid_count
        %s`, base)
	var totals models.FeeTotals
	if err := r.db.GetContext(ctx, &totals, totalsQuery, args...); err != nil {
		return nil, 0, nil, fmt.Errorf("total additional fees: %w", err)
	}
	return fees, total, &totals, nil
}

// FindByID fetches an additional fee by ID.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.AdditionalFee, error) {
	const query = `SELECT id, fee_number, student_id, student_name, school_id, fee_type, custom_label, amount, is_paid, paid_date, notes, created_at, updated_at
        FROM additional_fees WHERE id = $1`
	var fee models.AdditionalFee
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// UpdatePaidStatus persists the paid flag and paid date of a fee.
func (r *FeeRepository) UpdatePaidStatus(ctx context.Context, fee *models.AdditionalFee) error {
	const query = `UPDATE additional_fees SET is_paid = :is_paid, paid_date = :paid_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update fee paid status: %w", err)
	}
	return nil
}

// Delete removes an additional fee row.
func (r *FeeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM additional_fees WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete additional fee: %w", err)
	}
	return nil
}

// FeeExportRow is a denormalised fee line used by report generation.
type FeeExportRow struct {
	FeeNumber   int64   `db:"fee_number"`
	StudentName string  `db:"student_name"`
	FeeType     string  `db:"fee_type"`
	CustomLabel string  `db:"custom_label"`
	Amount      float64 `db:"amount"`
	IsPaid      bool    `db:"is_paid"`
	CreatedAt   string  `db:"created_at"`
}

// ListForExport returns fee lines for a school (or all schools when schoolID
// is empty), in fee-number order.
func (r *FeeRepository) ListForExport(ctx context.Context, schoolID string) ([]FeeExportRow, error) {
	query := `SELECT f.fee_number, f.student_name, f.fee_type, f.custom_label, f.amount, f.is_paid,
        TO_CHAR(f.created_at, 'YYYY-MM-DD') AS created_at
        FROM additional_fees f`
	args := []interface{}{}
	if schoolID != "" {
		query += " WHERE f.school_id = $1"
		args = append(args, schoolID)
	}
	query += " ORDER BY f.fee_number ASC"

	var rows []FeeExportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fees for export: %w", err)
	}
	return rows, nil
}
