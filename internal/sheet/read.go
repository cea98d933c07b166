package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("empty file: no header row found")

	// ErrUnsupportedFormat is returned for extensions other than csv/xlsx/xlsm.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format identifies a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the reader for a file name by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (use .xlsx or .csv)", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Read parses the file called name from r into a Table.
// Excel workbooks are read from their first sheet.
func Read(name string, r io.Reader) (*Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	}
	if err != nil {
		return nil, err
	}

	return newTable(rows)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(wrapCSVStream(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// newTable turns raw rows into a Table. Blank rows are dropped, the first
// remaining row becomes the header, and header cells are named positionally
// when blank so that every column holding data is addressable.
func newTable(rows [][]string) (*Table, error) {
	var kept [][]string
	width := 0
	for _, row := range rows {
		row = trimTrailingEmpty(row)
		if len(row) == 0 {
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		kept = append(kept, row)
	}

	if len(kept) == 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, width)
	for i := range header {
		if i < len(kept[0]) {
			header[i] = strings.TrimSpace(kept[0][i])
		}
		if header[i] == "" {
			header[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	return &Table{Header: header, Rows: kept[1:]}, nil
}
