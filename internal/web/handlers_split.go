package web

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wind-7274/seatlease-process/internal/core"
	"github.com/wind-7274/seatlease-process/internal/phone"
	"github.com/wind-7274/seatlease-process/internal/sheet"
	"github.com/wind-7274/seatlease-process/internal/web/pages"
)

type tableJSON struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func newTableJSON(t *sheet.Table) *tableJSON {
	rows := t.Rows
	if rows == nil {
		rows = [][]string{}
	}
	return &tableJSON{Header: t.Header, Rows: rows}
}

type optionsJSON struct {
	Separator string `json:"separator"`
	KeepEmpty bool   `json:"keep_empty"`
	E164      bool   `json:"e164"`
}

// SplitResponse is the API view of a split run.
type SplitResponse struct {
	ID         string            `json:"id"`
	FileName   string            `json:"file_name"`
	CreatedAt  time.Time         `json:"created_at"`
	DurationMS int64             `json:"duration_ms"`
	Options    optionsJSON       `json:"options"`
	Summary    core.SplitSummary `json:"summary"`
	Downloads  map[string]string `json:"downloads"`
	Valid      *tableJSON        `json:"valid,omitempty"`
	Invalid    *tableJSON        `json:"invalid,omitempty"`
}

func newSplitResponse(run *core.SplitRun, withTables bool) SplitResponse {
	resp := SplitResponse{
		ID:         run.ID,
		FileName:   run.FileName,
		CreatedAt:  run.CreatedAt,
		DurationMS: run.Duration.Milliseconds(),
		Options: optionsJSON{
			Separator: run.Options.Separator,
			KeepEmpty: run.Options.KeepEmpty,
			E164:      run.Options.E164,
		},
		Summary:   run.Summary(),
		Downloads: map[string]string{"valid": "/api/split/" + run.ID + "/valid"},
	}
	if run.HasInvalid() {
		resp.Downloads["invalid"] = "/api/split/" + run.ID + "/invalid"
	}
	if withTables {
		resp.Valid = newTableJSON(run.Result.ValidTable())
		resp.Invalid = newTableJSON(run.Result.InvalidTable())
	}
	return resp
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pages.Home(s.homeData(s.service.DefaultSplitOptions())))
}

func (s *Server) homeData(opts phone.Options) pages.HomeData {
	return pages.HomeData{
		Separator:   opts.Separator,
		KeepEmpty:   opts.KeepEmpty,
		E164:        opts.E164,
		MaxFileSize: pages.ByteSize(s.cfg.Upload.MaxFileSize),
	}
}

// runSplit parses the upload form and runs the split.
func (s *Server) runSplit(w http.ResponseWriter, r *http.Request) (*core.SplitRun, phone.Options, error) {
	opts := s.service.DefaultSplitOptions()
	if err := s.parseUpload(w, r); err != nil {
		return nil, opts, err
	}
	defer r.MultipartForm.RemoveAll()

	opts = splitOptions(r, opts)
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, opts, errNoFile
	}
	defer file.Close()

	run, err := s.service.Split(withClient(r), core.SplitRequest{
		FileName: header.Filename,
		Body:     file,
		Options:  opts,
	})
	return run, opts, err
}

// handleSplitPage runs a split from the form and renders the results, or
// the form again with the error.
func (s *Server) handleSplitPage(w http.ResponseWriter, r *http.Request) {
	run, opts, err := s.runSplit(w, r)
	if err != nil {
		status := statusFor(err)
		msg := logError(r, err, status)
		data := s.homeData(opts)
		data.Error = &msg
		render(w, r, status, pages.Home(data))
		return
	}

	data := pages.SplitResultData{
		Run:       run,
		Summary:   run.Summary(),
		Preview:   run.Preview,
		ValidURL:  "/split/" + run.ID + "/valid",
		Retention: s.cfg.Results.TTL,
	}
	if run.HasInvalid() {
		data.InvalidURL = "/split/" + run.ID + "/invalid"
	}
	render(w, r, http.StatusOK, pages.SplitResult(data))
}

func (s *Server) handleSplitAPI(w http.ResponseWriter, r *http.Request) {
	run, _, err := s.runSplit(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/split/"+run.ID)
	writeJSON(w, r, http.StatusCreated, newSplitResponse(run, false))
}

func (s *Server) handleSplitRunAPI(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.SplitRun(chi.URLParam(r, "runID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newSplitResponse(run, true))
}

func (s *Server) handleDownloadValid(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.SplitRun(chi.URLParam(r, "runID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	format := downloadFormat(r)
	sendFile(w, r, core.DownloadName(core.ValidFileName, format), sheet.ContentType(format), func(out io.Writer) error {
		return run.WriteValid(out, format)
	})
}

func (s *Server) handleDownloadInvalid(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.SplitRun(chi.URLParam(r, "runID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	format := downloadFormat(r)
	sendFile(w, r, core.DownloadName(core.InvalidFileName, format), sheet.ContentType(format), func(out io.Writer) error {
		return run.WriteInvalid(out, format)
	})
}
