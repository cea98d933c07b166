package web

import (
	"context"
	"net/http"

	"github.com/wind-7274/seatlease-process/internal/core"
)

// withClient tags the request context with the caller's IP and User-Agent
// for run logging.
func withClient(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), clientIP(r), r.UserAgent())
}
