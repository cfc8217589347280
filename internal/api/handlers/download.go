package handlers

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/web-transcriber/backend/internal/job"
)

var contentTypes = map[string]string{
	"txt":  "text/plain; charset=utf-8",
	"srt":  "application/x-subrip; charset=utf-8",
	"vtt":  "text/vtt; charset=utf-8",
	"json": "application/json; charset=utf-8",
}

type DownloadHandler struct {
	store *job.Store
}

func NewDownloadHandler(store *job.Store) *DownloadHandler {
	return &DownloadHandler{store: store}
}

// Download serves one output artifact. Artifacts only exist once a job
// is done, so a missing file doubles as the not-done answer.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	format := chi.URLParam(r, "format")
	contentType, ok := contentTypes[format]
	if !ok {
		jsonError(w, "format must be one of: txt, srt, vtt, json", http.StatusBadRequest)
		return
	}

	path := h.store.ArtifactPath(id, format)
	if _, err := os.Stat(path); err != nil {
		jsonError(w, "artifact not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, path)
}
