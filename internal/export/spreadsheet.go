package export

import (
	"fmt"
	"io"

	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of a spreadsheet export.
const SheetName = "Risk Report"

// WriteSpreadsheet writes the view as a one-sheet XLSX workbook: a bold
// header row of column names, then one row per record. Missing values are
// left blank. An empty view returns ErrNothingToExport before anything is
// written.
func WriteSpreadsheet(w io.Writer, view domain.View) error {
	if view.Len() == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(view.Columns))
	for i, c := range view.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, rec := range view.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, len(view.Columns))
		for j, c := range view.Columns {
			v, _ := rec.Get(c)
			if v == nil {
				v = ""
			}
			row[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
