package web

import (
	"net/http"

	"github.com/wind-7274/seatlease-process/internal/history"
	"github.com/wind-7274/seatlease-process/internal/web/pages"
)

const maxHistoryLimit = 500

func (s *Server) historyLimit(r *http.Request) int {
	return min(parseIntParam(r, "limit", history.DefaultLimit), maxHistoryLimit)
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context(), s.historyLimit(r))
	data := pages.HistoryData{Runs: runs}
	if err != nil {
		status := statusFor(err)
		msg := logError(r, err, status)
		data.Error = &msg
		render(w, r, status, pages.History(data))
		return
	}
	render(w, r, http.StatusOK, pages.History(data))
}

func (s *Server) handleHistoryAPI(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context(), s.historyLimit(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   s.service.JobStatus(),
	})
}
