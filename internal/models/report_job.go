package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates the exports the system can produce.
type ReportType string

const (
	ReportTypeInstallments ReportType = "installments"
	ReportTypeFees         ReportType = "fees"
	ReportTypeFinancial    ReportType = "financial"
)

// ReportFormat enumerates supported output formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus tracks the lifecycle of an export job.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "queued"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusFinished   ReportStatus = "finished"
	ReportStatusFailed     ReportStatus = "failed"
)

// ReportJobParams captures scoping parameters stored alongside the job.
type ReportJobParams struct {
	SchoolID string       `json:"school_id,omitempty"`
	Month    string       `json:"month,omitempty"`
	Format   ReportFormat `json:"format"`
}

// Value implements driver.Valuer for JSONB storage.
func (p ReportJobParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage.
func (p *ReportJobParams) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported report params type %T", src)
	}
}

// ReportJob is a queued export request and its progress.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
}
