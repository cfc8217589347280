package handlers

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/web-transcriber/backend/internal/job"
	"github.com/web-transcriber/backend/internal/model"
	"github.com/web-transcriber/backend/internal/validate"
)

// multipart encoding overhead allowance on top of the media size limit
const uploadBodyLimit = validate.MaxFileSize + 10*1024*1024

type UploadHandler struct {
	store       *job.Store
	engine      *job.Engine
	models      *model.Manager
	uploadDir   string
	defaultTask string
}

func NewUploadHandler(store *job.Store, engine *job.Engine, models *model.Manager, uploadDir, defaultTask string) *UploadHandler {
	return &UploadHandler{
		store:       store,
		engine:      engine,
		models:      models,
		uploadDir:   uploadDir,
		defaultTask: defaultTask,
	}
}

// Upload accepts a media file plus optional language/task fields,
// validates it, stores it in the transient upload area and queues a
// transcription job.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.models.Switching() {
		jsonError(w, "model is switching, retry in a moment", http.StatusLocked)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validate.Check(header.Filename, header.Size); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	task := r.FormValue("task")
	if task == "" {
		task = h.defaultTask
	}
	if task != "transcribe" && task != "translate" {
		jsonError(w, "task must be transcribe or translate", http.StatusBadRequest)
		return
	}
	language := r.FormValue("language")

	jobID := uuid.New().String()
	destPath := filepath.Join(h.uploadDir, jobID+"_"+validate.Sanitize(header.Filename))

	if err := h.saveUpload(file, destPath); err != nil {
		log.Printf("[upload] failed to store %s: %v", header.Filename, err)
		jsonError(w, "upload failed", http.StatusInternalServerError)
		return
	}
	log.Printf("[upload] %s -> %s", header.Filename, destPath)

	sel := h.models.Current()
	h.store.Create(&job.Record{
		ID:          jobID,
		Filename:    header.Filename,
		Language:    language,
		Task:        task,
		ModelID:     sel.ModelID,
		ComputeType: sel.ComputeType,
	})

	h.engine.Submit(job.Request{
		JobID:      jobID,
		SourcePath: destPath,
		Language:   language,
		Task:       task,
	})

	jsonResponse(w, map[string]string{
		"job_id": jobID,
		"status": string(job.StatusQueued),
	}, http.StatusOK)
}

func (h *UploadHandler) saveUpload(src io.Reader, destPath string) error {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return err
	}
	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		os.Remove(destPath)
		return err
	}
	return dest.Close()
}
