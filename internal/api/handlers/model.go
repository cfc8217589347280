package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/web-transcriber/backend/internal/model"
)

type ModelHandler struct {
	models *model.Manager
}

func NewModelHandler(models *model.Manager) *ModelHandler {
	return &ModelHandler{models: models}
}

// List enumerates the supported models plus the committed selection and
// loading state.
func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	sel, loading, _ := h.models.Status()
	jsonResponse(w, map[string]interface{}{
		"available":     model.Available,
		"compute_types": model.ComputeTypes,
		"current":       sel,
		"loading":       loading,
	}, http.StatusOK)
}

// Switch queues an asynchronous switch to another model.
func (h *ModelHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string `json:"id"`
		ComputeType string `json:"compute_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		jsonError(w, "missing model id", http.StatusBadRequest)
		return
	}

	if err := h.models.RequestSwitch(req.ID, req.ComputeType); err != nil {
		if errors.Is(err, model.ErrSwitchInProgress) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	compute := req.ComputeType
	if compute == "" {
		compute = h.models.Current().ComputeType
	}
	jsonResponse(w, map[string]interface{}{
		"ok": true,
		"queued": map[string]string{
			"id":           req.ID,
			"compute_type": compute,
		},
	}, http.StatusOK)
}
