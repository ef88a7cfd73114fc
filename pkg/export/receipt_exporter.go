package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptField is one labelled line on a receipt.
type ReceiptField struct {
	Label string
	Value string
}

// Receipt describes a single printable payment receipt.
type Receipt struct {
	Title    string
	Number   int64
	IssuedAt time.Time
	Fields   []ReceiptField
}

// ReceiptExporter renders payment receipts as single-page PDFs.
type ReceiptExporter struct{}

// NewReceiptExporter constructs a receipt exporter.
func NewReceiptExporter() *ReceiptExporter {
	return &ReceiptExporter{}
}

// Render produces the PDF bytes for a receipt.
func (e *ReceiptExporter) Render(r Receipt) ([]byte, error) {
	if r.Title == "" {
		return nil, fmt.Errorf("receipt requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, r.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Receipt No. %d", r.Number), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, r.IssuedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetDrawColor(120, 120, 120)
	for _, field := range r.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 8, field.Label, "B", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 8, field.Value, "B", 1, "", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
