package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/askdb/askdb/internal/api/response"
)

// Pinger reports whether a backing connection is alive.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler. db may be nil; the check then
// only reports process liveness.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse is the body returned by the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			response.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})

			return
		}
	}

	response.RespondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
