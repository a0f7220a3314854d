package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSX writes a single-sheet workbook with the same header and rows as CSV.
func XLSX[T any](w io.Writer, sheet string, records []T, cols []Column[T]) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("export: rename sheet: %w", err)
		}
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.Title
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for r, rec := range records {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = Format(c.Value(rec))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: write row %d: %w", r+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}
