package phone

import (
	"errors"
	"fmt"

	"github.com/wind-7274/seatlease-process/internal/sheet"
)

// ErrTooFewColumns is returned when an input table lacks the identifier or
// numbers column.
var ErrTooFewColumns = errors.New("missing required column: the file must have at least two columns (ID and Numbers)")

// InvalidValueHeader names the single value column of the invalid table.
const InvalidValueHeader = "Invalid Value"

// ValidColumnPrefix prefixes the positional columns of the valid table.
const ValidColumnPrefix = "TU"

// Record is one input row: an opaque identifier and a delimited string of
// phone numbers.
type Record struct {
	ID      string
	Numbers string
}

// Options control how records are processed.
type Options struct {
	// Separator splits the numbers field. Empty means no splitting.
	Separator string

	// KeepEmpty keeps an identifier-only valid row for records without any
	// valid number.
	KeepEmpty bool

	// E164 renders valid numbers in international format (+63...).
	E164 bool
}

// DefaultOptions splits on commas and keeps identifiers that have no valid
// number.
func DefaultOptions() Options {
	return Options{Separator: DefaultSeparator, KeepEmpty: true}
}

// ValidRow holds the valid numbers of one record in token order.
type ValidRow struct {
	ID      string   `json:"id"`
	Numbers []string `json:"numbers"`
}

// RejectRow pairs a record identifier with one token that failed
// validation, exactly as it appeared in the input.
type RejectRow struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Result is the outcome of processing a batch of records.
type Result struct {
	IDHeader string      `json:"id_header"`
	Records  int         `json:"records"`
	Valid    []ValidRow  `json:"valid"`
	Invalid  []RejectRow `json:"invalid"`
}

// ProcessRecord runs one record through the pipeline. The valid row is
// always returned (possibly with no numbers); callers decide whether to
// keep it.
func ProcessRecord(rec Record, opts Options) (ValidRow, []RejectRow) {
	row := ValidRow{ID: rec.ID}
	var rejects []RejectRow

	for _, token := range Split(rec.Numbers, opts.Separator) {
		formatted := Format(Clean(token))
		if !IsValid(formatted) {
			rejects = append(rejects, RejectRow{ID: rec.ID, Value: token})
			continue
		}
		if opts.E164 {
			formatted = ToE164(formatted)
		}
		row.Numbers = append(row.Numbers, formatted)
	}

	return row, rejects
}

// Process runs every record in order and aggregates the two outputs.
func Process(records []Record, opts Options) *Result {
	res := &Result{Records: len(records)}
	for _, rec := range records {
		row, rejects := ProcessRecord(rec, opts)
		res.add(row, rejects, opts)
	}
	return res
}

func (r *Result) add(row ValidRow, rejects []RejectRow, opts Options) {
	if len(row.Numbers) > 0 || opts.KeepEmpty {
		r.Valid = append(r.Valid, row)
	}
	r.Invalid = append(r.Invalid, rejects...)
}

// ValidCount returns the total number of valid numbers.
func (r *Result) ValidCount() int {
	n := 0
	for _, row := range r.Valid {
		n += len(row.Numbers)
	}
	return n
}

// MaxNumbers returns the widest valid row, i.e. k in TU1..TUk.
func (r *Result) MaxNumbers() int {
	k := 0
	for _, row := range r.Valid {
		if len(row.Numbers) > k {
			k = len(row.Numbers)
		}
	}
	return k
}

func (r *Result) idHeader() string {
	if r.IDHeader == "" {
		return "ID"
	}
	return r.IDHeader
}

// ValidTable materializes the valid side: identifier plus TU1..TUk, with
// shorter rows padded by blanks.
func (r *Result) ValidTable() *sheet.Table {
	k := r.MaxNumbers()
	header := make([]string, 0, k+1)
	header = append(header, r.idHeader())
	for i := 1; i <= k; i++ {
		header = append(header, fmt.Sprintf("%s%d", ValidColumnPrefix, i))
	}

	rows := make([][]string, len(r.Valid))
	for i, v := range r.Valid {
		row := make([]string, k+1)
		row[0] = v.ID
		copy(row[1:], v.Numbers)
		rows[i] = row
	}

	return &sheet.Table{Header: header, Rows: rows}
}

// InvalidTable materializes the invalid side, one row per rejected token.
func (r *Result) InvalidTable() *sheet.Table {
	rows := make([][]string, len(r.Invalid))
	for i, rej := range r.Invalid {
		rows[i] = []string{rej.ID, rej.Value}
	}
	return &sheet.Table{
		Header: []string{r.idHeader(), InvalidValueHeader},
		Rows:   rows,
	}
}

// RecordsFromTable reads column 0 as the identifier (verbatim) and column 1
// as the numbers field. Extra columns are ignored. The returned header is the
// identifier column's name, reused by both output tables.
func RecordsFromTable(t *sheet.Table) ([]Record, string, error) {
	if t.Width() < 2 {
		return nil, "", ErrTooFewColumns
	}

	records := make([]Record, t.Len())
	for i := range t.Rows {
		records[i] = Record{
			ID:      t.RawCell(i, 0),
			Numbers: t.Cell(i, 1),
		}
	}
	return records, t.Header[0], nil
}
