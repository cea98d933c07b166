package web

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wind-7274/seatlease-process/internal/core"
	"github.com/wind-7274/seatlease-process/internal/unlock"
	"github.com/wind-7274/seatlease-process/internal/web/pages"
)

// UnlockResponse is the API view of an unlock run.
type UnlockResponse struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	DurationMS int64            `json:"duration_ms"`
	Files      int              `json:"files"`
	Unlocked   []string         `json:"unlocked"`
	Failures   []unlock.Failure `json:"failures"`
	Archive    string           `json:"archive"`
}

func newUnlockResponse(run *core.UnlockRun) UnlockResponse {
	resp := UnlockResponse{
		ID:         run.ID,
		CreatedAt:  run.CreatedAt,
		DurationMS: run.Duration.Milliseconds(),
		Files:      run.Files,
		Unlocked:   run.Report.Unlocked,
		Failures:   run.Report.Failures,
		Archive:    "/api/unlock/" + run.ID + "/archive",
	}
	if resp.Unlocked == nil {
		resp.Unlocked = []string{}
	}
	if resp.Failures == nil {
		resp.Failures = []unlock.Failure{}
	}
	return resp
}

func (s *Server) handleUnlockForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pages.Unlock(pages.UnlockData{MaxFiles: s.cfg.Upload.MaxFiles}))
}

func (s *Server) runUnlock(w http.ResponseWriter, r *http.Request) (*core.UnlockRun, error) {
	if err := s.parseUpload(w, r); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	files, err := uploadedFiles(r)
	if err != nil {
		return nil, err
	}
	return s.service.Unlock(withClient(r), core.UnlockRequest{
		Password: r.FormValue("password"),
		Files:    files,
	})
}

func (s *Server) handleUnlockPage(w http.ResponseWriter, r *http.Request) {
	run, err := s.runUnlock(w, r)
	if err != nil {
		status := statusFor(err)
		msg := logError(r, err, status)
		data := pages.UnlockData{MaxFiles: s.cfg.Upload.MaxFiles}
		data.Error = &msg
		render(w, r, status, pages.Unlock(data))
		return
	}

	data := pages.UnlockResultData{Run: run, ArchiveName: unlock.ArchiveName}
	if run.HasArchive() {
		data.ArchiveURL = "/unlock/" + run.ID + "/archive"
	}
	render(w, r, http.StatusOK, pages.UnlockResult(data))
}

func (s *Server) handleUnlockAPI(w http.ResponseWriter, r *http.Request) {
	run, err := s.runUnlock(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/unlock/"+run.ID)
	writeJSON(w, r, http.StatusCreated, newUnlockResponse(run))
}

func (s *Server) handleUnlockRunAPI(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.UnlockRun(chi.URLParam(r, "runID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newUnlockResponse(run))
}

func (s *Server) handleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.UnlockRun(chi.URLParam(r, "runID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	sendFile(w, r, unlock.ArchiveName, "application/zip", func(out io.Writer) error {
		_, err := io.Copy(out, bytes.NewReader(run.Report.Archive))
		return err
	})
}
