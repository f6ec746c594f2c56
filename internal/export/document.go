package export

import (
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/go-pdf/fpdf"
)

// Fixed layout of the printable report, in millimetres on A4 portrait.
const (
	DocumentTitle  = "Disaster Risk Report in National Capital Region"
	NoDataMessage  = "No data available for selected cities."
	rowHeight      = 10.0
	titleHeight    = 12.0
	headerFontSize = 12.0
	titleFontSize  = 14.0
	footerFontSize = 8.0
	documentFont   = "Arial"
)

var (
	documentHeaders = []string{"Location", "Predicted Risk", "Recommendation"}
	documentColumns = []string{domain.ColumnID, domain.ColumnPredictedRisk, domain.ColumnRecommendation}
	columnWidths    = []float64{45, 60, 85}
)

// compressDocuments is switched off in tests so content streams are readable.
var compressDocuments = true

// WriteDocument writes the view as a one-table PDF report with the location,
// predicted risk and recommendation of every record. An empty view renders a
// single placeholder row spanning the table.
func WriteDocument(w io.Writer, view domain.View) error {
	generated := domain.Now()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compressDocuments)
	pdf.SetTitle(DocumentTitle, true)
	pdf.SetCreator("ncr-risk-service", true)
	pdf.SetCreationDate(generated)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(documentFont, "I", footerFontSize)
		pdf.CellFormat(0, rowHeight, "Generated "+generated.Format(time.RFC3339), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(documentFont, "B", titleFontSize)
	pdf.CellFormat(0, titleHeight, DocumentTitle, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont(documentFont, "B", headerFontSize)
	for i, h := range documentHeaders {
		pdf.CellFormat(columnWidths[i], rowHeight, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(documentFont, "", headerFontSize)
	if view.Len() == 0 {
		pdf.CellFormat(tableWidth(), rowHeight, NoDataMessage, "1", 1, "C", false, 0, "")
	}
	for _, rec := range view.Records {
		for i, c := range documentColumns {
			pdf.CellFormat(columnWidths[i], rowHeight, tr(rec.String(c)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	return nil
}

func tableWidth() float64 {
	var total float64
	for _, w := range columnWidths {
		total += w
	}
	return total
}
