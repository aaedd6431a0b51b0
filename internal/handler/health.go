package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/josh-kwaku/user-directory/internal/domain"
	"github.com/josh-kwaku/user-directory/internal/store"
)

type snapshotter interface {
	Snapshot() store.Snapshot
}

type HealthHandler struct {
	directory snapshotter
}

func NewHealthHandler(directory snapshotter) *HealthHandler {
	return &HealthHandler{directory: directory}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports the last directory fetch. Only a failed fetch marks the
// service as down; idle and loading are still ready to serve local records.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	snap := h.directory.Snapshot()
	httpStatus := http.StatusOK

	if snap.Status == domain.FetchStatusFailed {
		slog.Warn("readiness check failed: directory fetch failed", "error", snap.Error)
		httpStatus = http.StatusServiceUnavailable
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]string{
			"directory": string(snap.Status),
		},
	})
}
