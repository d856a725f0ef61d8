package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/pit/internal/taskservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *taskservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *taskservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		writeServiceError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs})
}

// ListTasks handles GET /api/tasks.
//
//	@Summary		Extract the tasks of one document
//	@Tags			tasks
//	@Produce		json
//	@Param			path	query		string	true	"Document path"
//	@Success		200		{object}	DocumentTasks
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	doc, err := h.svc.ListTasks(r.Context(), path)
	if err != nil {
		writeServiceError(w, "list tasks", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SearchTasks handles GET /api/tasks/search.
//
//	@Summary		List or search indexed tasks across the vault
//	@Tags			tasks
//	@Produce		json
//	@Param			q			query		string	false	"Full-text query"
//	@Param			completed	query		bool	false	"Filter by completion"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	TaskListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/search [get]
func (h *Handler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := taskservice.TaskQuery{Query: q.Get("q")}
	query.Limit, _ = strconv.Atoi(q.Get("limit"))
	query.Offset, _ = strconv.Atoi(q.Get("offset"))
	if raw := q.Get("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'completed' must be a boolean"))
			return
		}
		query.Completed = &v
	}

	tasks, total, err := h.svc.SearchTasks(r.Context(), query)
	if err != nil {
		writeServiceError(w, "search tasks", err, slog.String("query", query.Query))
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks, Total: total})
}

// RollTask handles GET /api/tasks/roll.
//
//	@Summary		Draw a task weighted by priority
//	@Tags			tasks
//	@Produce		json
//	@Param			path	query		string	false	"Document path; the whole vault when empty"
//	@Param			open	query		bool	false	"Only draw open tasks"
//	@Success		200		{object}	TaskView
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/roll [get]
func (h *Handler) RollTask(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	open, _ := strconv.ParseBool(q.Get("open"))
	path := q.Get("path")

	v, err := h.svc.RollTask(r.Context(), path, taskservice.RollOptions{OpenOnly: open})
	if err != nil {
		writeServiceError(w, "roll task", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ToggleTask handles POST /api/tasks/toggle.
//
//	@Summary		Toggle the completion of a task
//	@Description	Applied toggles return 200. While an earlier toggle waits for its write to settle the request is queued and 202 is returned.
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ToggleTaskRequest	true	"Task to toggle"
//	@Success		200		{object}	ToggleResult
//	@Success		202		{object}	ToggleResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/toggle [post]
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ToggleTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.ToggleTask(r.Context(), taskservice.ToggleRequest{
		Path:     req.Path,
		Line:     *req.Line,
		Checksum: req.Checksum,
	})
	if err != nil {
		writeServiceError(w, "toggle task", err, slog.String("path", req.Path), slog.Int("line", *req.Line))
		return
	}
	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

// Stats handles GET /api/stats.
//
//	@Summary		Completion history
//	@Tags			stats
//	@Produce		json
//	@Param			path	query		string	false	"Document path; the whole vault when empty"
//	@Success		200		{object}	StatsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	st, err := h.svc.Stats(r.Context(), path)
	if err != nil {
		writeServiceError(w, "stats", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Settings handles GET /api/settings.
//
//	@Summary		Task settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) Settings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}
