package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alhisab/school-fees-api/internal/models"
	"github.com/alhisab/school-fees-api/internal/repository"
	"github.com/alhisab/school-fees-api/pkg/export"
	"github.com/alhisab/school-fees-api/pkg/storage"
)

type exportInstallmentSource interface {
	ListForExport(ctx context.Context, schoolID string) ([]repository.ExportRow, error)
}

type exportFeeSource interface {
	ListForExport(ctx context.Context, schoolID string) ([]repository.FeeExportRow, error)
}

type exportFinancialSource interface {
	Summary(ctx context.Context, month string) (*models.FinancialSummary, error)
	SchoolBreakdown(ctx context.Context) ([]models.SchoolBreakdown, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	installments exportInstallmentSource
	fees         exportFeeSource
	financial    exportFinancialSource
	storage      fileStorage
	csv          csvRenderer
	pdf          pdfRenderer
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
	cfg          ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(installments exportInstallmentSource, fees exportFeeSource, financial exportFinancialSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		installments: installments,
		fees:         fees,
		financial:    financial,
		storage:      store,
		csv:          csv,
		pdf:          pdf,
		signer:       signer,
		logger:       logger,
		cfg:          cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to the configured ResultTTL).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := sanitizeFilename(job.Params.SchoolID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scope, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeInstallments:
		return s.buildInstallmentDataset(ctx, job.Params)
	case models.ReportTypeFees:
		return s.buildFeeDataset(ctx, job.Params)
	case models.ReportTypeFinancial:
		return s.buildFinancialDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildInstallmentDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	rows, err := s.installments.ListForExport(ctx, params.SchoolID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"Receipt", "Student", "Grade", "Section", "Amount", "Date"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Receipt": strconv.FormatInt(row.ReceiptNumber, 10),
			"Student": row.StudentName,
			"Grade":   row.Grade,
			"Section": row.ClassSection,
			"Amount":  formatAmount(row.Amount),
			"Date":    row.CreatedAt,
		})
	}
	return dataset, "Installments Report", nil
}

func (s *ExportService) buildFeeDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	rows, err := s.fees.ListForExport(ctx, params.SchoolID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"No.", "Student", "Fee", "Amount", "Paid", "Date"},
	}
	for _, row := range rows {
		label := row.FeeType
		if row.FeeType == string(models.FeeTypeCustom) && row.CustomLabel != "" {
			label = row.CustomLabel
		}
		paid := "no"
		if row.IsPaid {
			paid = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"No.":     strconv.FormatInt(row.FeeNumber, 10),
			"Student": row.StudentName,
			"Fee":     label,
			"Amount":  formatAmount(row.Amount),
			"Paid":    paid,
			"Date":    row.CreatedAt,
		})
	}
	return dataset, "Additional Fees Report", nil
}

func (s *ExportService) buildFinancialDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	summary, err := s.financial.Summary(ctx, params.Month)
	if err != nil {
		return export.Dataset{}, "", err
	}
	breakdown, err := s.financial.SchoolBreakdown(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"School", "Students", "Billed", "Collected", "Outstanding"},
	}
	for _, row := range breakdown {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"School":      row.SchoolName,
			"Students":    strconv.FormatInt(row.StudentCount, 10),
			"Billed":      formatAmount(row.TotalFees),
			"Collected":   formatAmount(row.Collected),
			"Outstanding": formatAmount(row.Outstanding),
		})
	}
	dataset.Rows = append(dataset.Rows, map[string]string{
		"School":      "TOTAL",
		"Students":    strconv.FormatInt(summary.StudentCount, 10),
		"Billed":      formatAmount(summary.TotalFees),
		"Collected":   formatAmount(summary.TotalCollected),
		"Outstanding": formatAmount(summary.TotalOutstanding),
	})

	title := "Financial Report"
	if params.Month != "" {
		title = fmt.Sprintf("Financial Report %s", params.Month)
	}
	return dataset, title, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
