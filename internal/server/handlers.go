package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cardbeam/cardbeam/internal/pusher"
	"github.com/cardbeam/cardbeam/internal/scheduler"
)

// Runner is the subset of the scheduler the API needs.
type Runner interface {
	Trigger()
	LastReport() *scheduler.Report
	Latest(idx int) (scheduler.LatestBlob, bool)
}

// Handler holds API route handlers.
type Handler struct {
	runner Runner
}

// NewHandler creates a new Handler.
func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// Refresh handles POST /api/refresh: the "refresh now" action. The cycle
// runs out of band; this returns immediately.
func (h *Handler) Refresh(w http.ResponseWriter, _ *http.Request) {
	h.runner.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

// Status handles GET /api/status and returns the last cycle report.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	report := h.runner.LastReport()
	if report == nil {
		writeJSON(w, http.StatusOK, map[string]any{"report": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report})
}

// Latest handles GET /api/plugins/{index}/latest. It serves the most
// recently pushed blob in the same envelope shape the webhook receives,
// so a display can be pointed at the daemon itself during development.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid plugin index"))
		return
	}
	lb, ok := h.runner.Latest(idx)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no payload pushed yet"))
		return
	}
	w.Header().Set("Last-Modified", lb.At.Format(time.RFC1123))
	writeJSON(w, http.StatusOK, pusher.NewEnvelope(lb.Blob))
}
