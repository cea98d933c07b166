package sheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Content types for downloads.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// defaultSheet is the sheet excelize.NewFile creates.
const defaultSheet = "Sheet1"

// WriteXLSX writes t as a single-sheet workbook. Every cell is written as
// text so leading zeros in phone numbers survive a round trip through Excel.
func WriteXLSX(w io.Writer, t *Table, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = defaultSheet
	}
	if sheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	width := t.Width()
	if err := writeStreamRow(sw, 1, t.Header, width); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := writeStreamRow(sw, i+2, row, width); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeStreamRow(sw *excelize.StreamWriter, rowNum int, row []string, width int) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, width)
	for i := range values {
		if i < len(row) {
			values[i] = row[i]
		} else {
			values[i] = ""
		}
	}
	if err := sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

// WriteCSV writes t as CSV with the header first. Short rows are padded.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	width := t.Width()

	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := make([]string, width)
		copy(record, row)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Write dispatches to WriteXLSX or WriteCSV.
func Write(w io.Writer, t *Table, format Format, sheetName string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t, sheetName)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ContentType returns the MIME type for format.
func ContentType(format Format) string {
	if format == FormatCSV {
		return ContentTypeCSV
	}
	return ContentTypeXLSX
}
