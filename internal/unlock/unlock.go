// Package unlock removes a known password from encrypted Excel workbooks
// and packages the results as a single zip archive.
//
// Decryption itself is delegated to excelize, which understands the
// ECMA-376 standard and agile encryption used by Office. This package only
// drives it per file and keeps going when one file fails.
package unlock

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ArchiveName is the download name of the zip produced by Batch.
const ArchiveName = "unprotected_excels.zip"

var (
	ErrNoPassword    = errors.New("no password provided: please enter the password")
	ErrNoFiles       = errors.New("no file provided: please upload at least one Excel file")
	ErrNotEncrypted  = errors.New("file is not password protected")
	ErrWrongPassword = errors.New("wrong password or corrupted workbook")
)

// oleSignature starts every OLE compound file, which is the container Office
// uses for encrypted workbooks.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// File is one uploaded workbook.
type File struct {
	Name string
	Data []byte
}

// Failure records why a single file could not be unlocked.
type Failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Report is the outcome of a Batch call.
type Report struct {
	Unlocked []string  `json:"unlocked"`
	Failures []Failure `json:"failures"`
	Archive  []byte    `json:"-"`
}

// Decrypt returns the plain workbook bytes of an encrypted workbook.
func Decrypt(data []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrNoPassword
	}
	if !bytes.HasPrefix(data, oleSignature) {
		return nil, ErrNotEncrypted
	}

	plain, err := excelize.Decrypt(data, &excelize.Options{Password: password})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPassword, err)
	}

	// A wrong key still "decrypts", just into noise. Only a readable zip
	// package proves the password was right.
	if _, err := zip.NewReader(bytes.NewReader(plain), int64(len(plain))); err != nil {
		return nil, ErrWrongPassword
	}
	return plain, nil
}

// Batch decrypts every file with password and zips the successes.
// Per-file failures are collected in the report and never abort the batch;
// the returned error is reserved for caller mistakes, cancellation, and
// archive write failures.
func Batch(ctx context.Context, password string, files []File) (*Report, error) {
	if password == "" {
		return nil, ErrNoPassword
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	report := &Report{}
	names := make(map[string]int)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		plain, err := Decrypt(f.Data, password)
		if err != nil {
			report.Failures = append(report.Failures, Failure{Name: f.Name, Error: err.Error()})
			continue
		}

		name := uniqueName(names, baseName(f.Name))
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("add %s to archive: %w", name, err)
		}
		if _, err := w.Write(plain); err != nil {
			return nil, fmt.Errorf("write %s to archive: %w", name, err)
		}
		report.Unlocked = append(report.Unlocked, name)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	report.Archive = buf.Bytes()
	return report, nil
}

// baseName strips any client-side directory from an upload name.
func baseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "workbook.xlsx"
	}
	return name
}

// uniqueName appends " (n)" before the extension for repeated names.
func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	n := seen[name]
	if n == 1 {
		return name
	}
	ext := filepath.Ext(name)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
	seen[candidate]++
	return candidate
}
