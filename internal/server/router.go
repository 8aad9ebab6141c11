package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(runner Runner, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(runner)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Manual trigger and status.
	r.Post("/refresh", h.Refresh)
	r.Get("/status", h.Status)

	// Latest pushed blob per plugin, in webhook envelope shape.
	r.Get("/plugins/{index}/latest", h.Latest)

	// SSE stream of push events (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
