package handlers

import (
	"net/http"

	"github.com/web-transcriber/backend/internal/model"
)

type HealthHandler struct {
	models *model.Manager
}

func NewHealthHandler(models *model.Manager) *HealthHandler {
	return &HealthHandler{models: models}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sel, loading, loaded := h.models.Status()
	jsonResponse(w, map[string]interface{}{
		"status":        "healthy",
		"model_loaded":  loaded,
		"current_model": sel.ModelID,
		"loading":       loading.InProgress,
	}, http.StatusOK)
}
