package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alhisab/school-fees-api/internal/ledger"
	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	CreateBatch(ctx context.Context, students []*models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	CountLedgerRecords(ctx context.Context, id string) (int, error)
}

type studentSchoolRepository interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type studentInstallmentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Installment, error)
}

// StudentRequest holds payload for creating and updating students.
type StudentRequest struct {
	FullName     string    `json:"full_name" validate:"required"`
	SchoolID     string    `json:"school_id" validate:"required"`
	Grade        string    `json:"grade" validate:"required"`
	ClassSection string    `json:"class_section"`
	TotalFee     float64   `json:"total_fee" validate:"gte=0"`
	StartDate    time.Time `json:"start_date"`
}

// BulkCreateRequest registers several students of one school in one call.
type BulkCreateRequest struct {
	SchoolID string             `json:"school_id" validate:"required"`
	Students []BulkStudentEntry `json:"students" validate:"required,min=1,dive"`
}

// BulkStudentEntry is one row of a bulk student import.
type BulkStudentEntry struct {
	FullName     string  `json:"full_name" validate:"required"`
	Grade        string  `json:"grade" validate:"required"`
	ClassSection string  `json:"class_section"`
	TotalFee     float64 `json:"total_fee" validate:"gte=0"`
}

// StudentStatement combines a student's profile, balance and payment history.
type StudentStatement struct {
	Student      models.StudentDetail `json:"student"`
	Balance      models.Balance       `json:"balance"`
	Installments []models.Installment `json:"installments"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo         studentRepository
	schools      studentSchoolRepository
	installments studentInstallmentReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, schools studentSchoolRepository, installments studentInstallmentReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, schools: schools, installments: installments, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student with its school names.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create enrols a new student after checking the grade belongs to a stage the
// school teaches.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	school, err := s.lookupSchool(ctx, req.SchoolID)
	if err != nil {
		return nil, err
	}
	if err := validateGrade(school, req.Grade); err != nil {
		return nil, err
	}

	student := &models.Student{
		FullName:     req.FullName,
		SchoolID:     req.SchoolID,
		Grade:        req.Grade,
		ClassSection: req.ClassSection,
		TotalFee:     req.TotalFee,
		StartDate:    req.StartDate,
	}
	if student.StartDate.IsZero() {
		student.StartDate = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// BulkCreate enrols several students in one transaction. A single invalid row
// rejects the whole batch.
func (s *StudentService) BulkCreate(ctx context.Context, req BulkCreateRequest) ([]*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	school, err := s.lookupSchool(ctx, req.SchoolID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	students := make([]*models.Student, 0, len(req.Students))
	for _, entry := range req.Students {
		if err := validateGrade(school, entry.Grade); err != nil {
			return nil, err
		}
		students = append(students, &models.Student{
			FullName:     entry.FullName,
			SchoolID:     req.SchoolID,
			Grade:        entry.Grade,
			ClassSection: entry.ClassSection,
			TotalFee:     entry.TotalFee,
			StartDate:    now,
		})
	}
	if err := s.repo.CreateBatch(ctx, students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create students")
	}
	return students, nil
}

// Update modifies an existing student. Changing the name does not rewrite
// names already stamped on issued receipts.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	school, err := s.lookupSchool(ctx, req.SchoolID)
	if err != nil {
		return nil, err
	}
	if err := validateGrade(school, req.Grade); err != nil {
		return nil, err
	}

	student := detail.Student
	student.FullName = req.FullName
	student.SchoolID = req.SchoolID
	student.Grade = req.Grade
	student.ClassSection = req.ClassSection
	student.TotalFee = req.TotalFee
	if !req.StartDate.IsZero() {
		student.StartDate = req.StartDate
	}
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return &student, nil
}

// Delete removes a student. A student with ledger records is kept.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountLedgerRecords(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count ledger records")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "student has payment records")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// Statement assembles the student's balance and full payment history.
func (s *StudentService) Statement(ctx context.Context, id string) (*StudentStatement, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	installments, err := s.installments.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load installments")
	}
	return &StudentStatement{
		Student:      *student,
		Balance:      ledger.ComputeBalance(student.TotalFee, installments),
		Installments: installments,
	}, nil
}

func (s *StudentService) lookupSchool(ctx context.Context, id string) (*models.School, error) {
	school, err := s.schools.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	return school, nil
}

func validateGrade(school *models.School, grade string) error {
	if !models.ValidGrade(grade) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown grade")
	}
	for _, g := range models.GradesForTypes(school.Types) {
		if g.Value == grade {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "grade not taught by this school")
}
