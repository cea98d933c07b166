// Package sheet reads and writes the small rectangular tables the tools
// exchange with users: CSV files and Excel workbooks.
//
// A Table is just a header row plus data rows of cell text. Cells are kept
// verbatim apart from surrounding whitespace; interpretation is left to the
// caller.
package sheet

import "strings"

// Table is a header row followed by data rows.
// Rows may be shorter than the header; missing cells read as "".
type Table struct {
	Header []string
	Rows   [][]string
}

// Width returns the number of header columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Header)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns the trimmed value at row, col or "" when out of range.
func (t *Table) Cell(row, col int) string {
	return strings.TrimSpace(t.RawCell(row, col))
}

// RawCell returns the value at row, col exactly as read.
func (t *Table) RawCell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Preview returns a table with the same header and at most n rows.
func (t *Table) Preview(n int) *Table {
	if t == nil {
		return &Table{}
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return &Table{Header: t.Header, Rows: t.Rows[:n]}
}

// trimTrailingEmpty drops empty cells at the end of a row. Spreadsheet
// readers tend to return ragged rows, so headers are normalized this way.
func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
