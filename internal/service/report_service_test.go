package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/repository"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
	"github.com/alhisab/school-fees-api/pkg/jobs"
)

type mockReportStore struct {
	created   []*models.ReportJob
	byID      *models.ReportJob
	updates   []repository.UpdateReportJobParams
	createErr error
	getErr    error
}

func (m *mockReportStore) Create(ctx context.Context, job *models.ReportJob) error {
	if m.createErr != nil {
		return m.createErr
	}
	job.ID = "job-1"
	m.created = append(m.created, job)
	return nil
}

func (m *mockReportStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.byID, nil
}

func (m *mockReportStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	m.updates = append(m.updates, params)
	return nil
}

func (m *mockReportStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

func (m *mockReportStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockGenerator struct {
	result *ExportResult
	err    error
}

func (m *mockGenerator) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestReportServiceCreateJob(t *testing.T) {
	store := &mockReportStore{}
	dispatcher := &mockDispatcher{}
	svc := NewReportService(store, dispatcher, nil, nil, ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), ReportRequest{
		Type:   models.ReportTypeInstallments,
		Format: models.ReportFormatCSV,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.ID)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, "job-1", dispatcher.enqueued[0].ID)
	require.Len(t, store.created, 1)
	assert.Equal(t, "user-1", store.created[0].CreatedBy)
}

func TestReportServiceCreateJobUnsupportedType(t *testing.T) {
	svc := NewReportService(&mockReportStore{}, &mockDispatcher{}, nil, nil, ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ReportRequest{Type: "payroll", Format: models.ReportFormatCSV}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobBadMonth(t *testing.T) {
	svc := NewReportService(&mockReportStore{}, &mockDispatcher{}, nil, nil, ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ReportRequest{
		Type:   models.ReportTypeFinancial,
		Format: models.ReportFormatPDF,
		Month:  "2026-13",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := &mockReportStore{}
	svc := NewReportService(store, &mockDispatcher{err: errors.New("queue full")}, nil, nil, ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ReportRequest{
		Type:   models.ReportTypeFees,
		Format: models.ReportFormatCSV,
	}, "user-1")
	require.Error(t, err)
	require.Len(t, store.updates, 1)
	require.NotNil(t, store.updates[0].Status)
	assert.Equal(t, models.ReportStatusFailed, *store.updates[0].Status)
}

func TestReportWorkerHandleFinishes(t *testing.T) {
	store := &mockReportStore{
		byID: &models.ReportJob{ID: "job-1", Type: models.ReportTypeInstallments, Status: models.ReportStatusQueued},
	}
	gen := &mockGenerator{result: &ExportResult{URL: "/api/v1/reports/download/tok-1"}}
	worker := NewReportWorker(store, gen, nil, 3, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))

	require.Len(t, store.updates, 2)
	assert.Equal(t, models.ReportStatusProcessing, *store.updates[0].Status)
	assert.Equal(t, 10, *store.updates[0].Progress)
	final := store.updates[1]
	assert.Equal(t, models.ReportStatusFinished, *final.Status)
	assert.Equal(t, 100, *final.Progress)
	require.NotNil(t, final.ResultURL)
	assert.Equal(t, "/api/v1/reports/download/tok-1", *final.ResultURL)
}

func TestReportWorkerHandleRequeuesBelowRetryLimit(t *testing.T) {
	store := &mockReportStore{
		byID: &models.ReportJob{ID: "job-1", Type: models.ReportTypeFees, Status: models.ReportStatusQueued},
	}
	worker := NewReportWorker(store, &mockGenerator{err: errors.New("render failed")}, nil, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)

	require.Len(t, store.updates, 2)
	assert.Equal(t, models.ReportStatusQueued, *store.updates[1].Status)
	assert.Equal(t, 0, *store.updates[1].Progress)
}

func TestReportWorkerHandleFailsAtRetryLimit(t *testing.T) {
	store := &mockReportStore{
		byID: &models.ReportJob{ID: "job-1", Type: models.ReportTypeFees, Status: models.ReportStatusQueued},
	}
	worker := NewReportWorker(store, &mockGenerator{err: errors.New("render failed")}, nil, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)

	require.Len(t, store.updates, 2)
	assert.Equal(t, 10, *store.updates[0].Progress)
	final := store.updates[1]
	assert.Equal(t, models.ReportStatusFailed, *final.Status)
	assert.Equal(t, 100, *final.Progress)
	require.NotNil(t, final.ErrorMessage)
	assert.Equal(t, "render failed", *final.ErrorMessage)
}

func TestReportServiceGetStatusNotFound(t *testing.T) {
	store := &mockReportStore{getErr: sql.ErrNoRows}
	svc := NewReportService(store, &mockDispatcher{}, nil, nil, ReportServiceConfig{})

	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
