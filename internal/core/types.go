package core

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wind-7274/seatlease-process/internal/phone"
	"github.com/wind-7274/seatlease-process/internal/sheet"
	"github.com/wind-7274/seatlease-process/internal/unlock"
)

// Download names offered to users.
const (
	ValidFileName   = "valid_numbers_per_id"
	InvalidFileName = "invalid_numbers"
)

// maxSeparatorLen bounds user-supplied separators.
const maxSeparatorLen = 10

var (
	ErrRunNotFound      = errors.New("run not found or expired")
	ErrNoInvalidNumbers = errors.New("no invalid numbers in this run")
	ErrTooManyFiles     = errors.New("too many files in one request")
	ErrInvalidSeparator = errors.New("invalid separator")
)

// SplitRequest is one uploaded table to split.
type SplitRequest struct {
	FileName string
	Body     io.Reader
	Options  phone.Options
}

// SplitSummary holds the counts shown after a split.
type SplitSummary struct {
	Records        int `json:"records"`
	ValidIDs       int `json:"valid_ids"`
	ValidNumbers   int `json:"valid_numbers"`
	InvalidEntries int `json:"invalid_entries"`
	MaxNumbers     int `json:"max_numbers"`
}

// SplitRun is a completed split kept for download.
type SplitRun struct {
	ID        string        `json:"id"`
	FileName  string        `json:"file_name"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
	Options   phone.Options `json:"-"`
	Result    *phone.Result `json:"-"`
	Preview   *sheet.Table  `json:"-"`
}

// Summary computes the run's counts.
func (r *SplitRun) Summary() SplitSummary {
	return SplitSummary{
		Records:        r.Result.Records,
		ValidIDs:       len(r.Result.Valid),
		ValidNumbers:   r.Result.ValidCount(),
		InvalidEntries: len(r.Result.Invalid),
		MaxNumbers:     r.Result.MaxNumbers(),
	}
}

// HasInvalid reports whether an invalid-numbers file is offered.
func (r *SplitRun) HasInvalid() bool {
	return len(r.Result.Invalid) > 0
}

// WriteValid writes the valid table. It is always produced, even when no
// record had a valid number.
func (r *SplitRun) WriteValid(w io.Writer, format sheet.Format) error {
	return sheet.Write(w, r.Result.ValidTable(), format, "Valid Numbers")
}

// WriteInvalid writes the invalid table, or returns ErrNoInvalidNumbers
// when there is nothing to report.
func (r *SplitRun) WriteInvalid(w io.Writer, format sheet.Format) error {
	if !r.HasInvalid() {
		return ErrNoInvalidNumbers
	}
	return sheet.Write(w, r.Result.InvalidTable(), format, "Invalid Numbers")
}

// DownloadName returns base plus the extension for format.
func DownloadName(base string, format sheet.Format) string {
	return fmt.Sprintf("%s.%s", base, format)
}

// UnlockRequest is a batch of workbooks sharing one password.
type UnlockRequest struct {
	Password string
	Files    []unlock.File
}

// UnlockRun is a completed unlock batch kept for download.
type UnlockRun struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Duration  time.Duration  `json:"duration"`
	Files     int            `json:"files"`
	Report    *unlock.Report `json:"report"`
}

// HasArchive reports whether at least one workbook was unlocked.
func (r *UnlockRun) HasArchive() bool {
	return len(r.Report.Unlocked) > 0
}
