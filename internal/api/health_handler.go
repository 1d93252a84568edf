package api

import (
	"net/http"
	"time"

	"github.com/notifyd/notifyd/internal/notify"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	registry *notify.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *notify.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Channels  int       `json:"channels"`
}

// Health handles GET /health (liveness probe)
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready handles GET /ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Channels:  h.registry.Len(),
	})
}
