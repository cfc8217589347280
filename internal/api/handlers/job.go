package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/web-transcriber/backend/internal/job"
)

type JobHandler struct {
	store *job.Store
}

func NewJobHandler(store *job.Store) *JobHandler {
	return &JobHandler{store: store}
}

// Status returns the poll view for one job.
func (h *JobHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	view, err := h.store.Status(id)
	if err != nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, view, http.StatusOK)
}

// List returns historical job summaries, newest-updated first.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.store.List(limit)
	if err != nil {
		jsonError(w, "failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, entries, http.StatusOK)
}

// Delete removes a job's record, log entry and output artifacts.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete job: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// jobID extracts and validates the {id} route parameter. Job IDs are
// UUIDs, so anything else is rejected before touching the stores.
func jobID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		jsonError(w, "invalid job ID format", http.StatusBadRequest)
		return "", false
	}
	return id, true
}
