package api

import (
	"net/http"

	"github.com/okian/sway/internal/domain/model"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	info InfoProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(info InfoProvider) *HealthHandler {
	return &HealthHandler{info: info}
}

type healthResponse struct {
	Status string     `json:"status"`
	Info   model.Info `json:"evaluator"`
}

// HandleHealth handles GET /healthz requests. It reports 503 until the evaluator has started.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	info := h.info.Info()
	if !info.Started {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting", Info: info})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: info})
}
