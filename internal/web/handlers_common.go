package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/wind-7274/seatlease-process/internal/logging"
	"github.com/wind-7274/seatlease-process/internal/phone"
	"github.com/wind-7274/seatlease-process/internal/sheet"
	"github.com/wind-7274/seatlease-process/internal/unlock"
)

// multipartMemory is how much of a multipart body is held in memory before
// file parts spill to disk.
const multipartMemory = 8 << 20

var errNoFile = errors.New("no file provided")

// parseUpload bounds the request body and parses the multipart form.
// Callers must RemoveAll the form when done.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return errNoFile
		}
		return fmt.Errorf("parse upload: %w", err)
	}
	return nil
}

// splitOptions overlays form values on the configured defaults. A present
// separator field is used verbatim, so an empty one disables splitting.
func splitOptions(r *http.Request, opts phone.Options) phone.Options {
	if v, ok := r.Form["separator"]; ok && len(v) > 0 {
		opts.Separator = v[len(v)-1]
	}
	opts.KeepEmpty = formBool(r, "keep_empty", opts.KeepEmpty)
	opts.E164 = formBool(r, "e164", opts.E164)
	return opts
}

// formBool reads the last value of key. Pages send a hidden "false" before
// each checkbox, so a checked box arrives as the later "true".
func formBool(r *http.Request, key string, def bool) bool {
	vals := r.Form[key]
	if len(vals) == 0 {
		return def
	}
	v := strings.TrimSpace(vals[len(vals)-1])
	if strings.EqualFold(v, "on") || strings.EqualFold(v, "yes") {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// uploadedFiles reads every file part under "files", falling back to
// "file" for single uploads.
func uploadedFiles(r *http.Request) ([]unlock.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}

	files := make([]unlock.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, unlock.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}

// downloadFormat reads ?format=, defaulting to xlsx.
func downloadFormat(r *http.Request) sheet.Format {
	if strings.EqualFold(r.URL.Query().Get("format"), string(sheet.FormatCSV)) {
		return sheet.FormatCSV
	}
	return sheet.FormatXLSX
}

// sendFile buffers write's output so a failure can still produce an
// error response, then sends it as an attachment.
func sendFile(w http.ResponseWriter, r *http.Request, name, contentType string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("download interrupted", "file", name, "error", err)
	}
}

// parseIntParam parses a positive integer query parameter with a default
// value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
