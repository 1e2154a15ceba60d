package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/tokvault-go/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrNotReady.Code, domain.ErrNotReady.Message, nil)
		return
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
