// Package export renders scored risk views as JSON records, XLSX
// spreadsheets and PDF reports. The HTTP API and the report CLI share it.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/ncr-risk-service/internal/domain"
)

// ErrNothingToExport is returned by the spreadsheet writer when the view has
// no rows. Records and documents accept empty views.
var ErrNothingToExport = errors.New("no data to export for selected cities")

// Format is an output format.
type Format string

const (
	FormatRecords     Format = "json"
	FormatSpreadsheet Format = "xlsx"
	FormatDocument    Format = "pdf"
)

// ParseFormat resolves a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "records":
		return FormatRecords, nil
	case "xlsx", "excel", "spreadsheet":
		return FormatSpreadsheet, nil
	case "pdf", "document":
		return FormatDocument, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatSpreadsheet:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatDocument:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Filename returns the download name for attachments.
func (f Format) Filename() string {
	switch f {
	case FormatSpreadsheet:
		return "Risk_Report.xlsx"
	case FormatDocument:
		return "Risk_Report.pdf"
	default:
		return "risk_data.json"
	}
}

// MetricLabel names the format in export metrics.
func (f Format) MetricLabel() string {
	switch f {
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatDocument:
		return "document"
	default:
		return "records"
	}
}

// Write renders view to w in the given format.
func Write(w io.Writer, f Format, view domain.View) error {
	switch f {
	case FormatRecords:
		return WriteRecords(w, view)
	case FormatSpreadsheet:
		return WriteSpreadsheet(w, view)
	case FormatDocument:
		return WriteDocument(w, view)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteRecords writes the view as a JSON array of objects in column order.
// An empty view is written as [].
func WriteRecords(w io.Writer, view domain.View) error {
	records := view.Records
	if records == nil {
		records = []domain.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}
