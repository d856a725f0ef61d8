package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pit/internal/taskservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *taskservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/documents", h.ListDocuments)

	// Tasks.
	r.Get("/tasks", h.ListTasks)
	r.Get("/tasks/search", h.SearchTasks)
	r.Get("/tasks/roll", h.RollTask)
	r.Post("/tasks/toggle", h.ToggleTask)

	r.Get("/stats", h.Stats)
	r.Get("/settings", h.Settings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
