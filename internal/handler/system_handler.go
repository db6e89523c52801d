package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanasan/todo-api/internal/model"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type SystemHandler struct {
	projectName string
	version     string
	db          healthChecker
}

// NewSystemHandler accepts a nil db for store drivers without a database.
func NewSystemHandler(projectName string, version string, db healthChecker) *SystemHandler {
	return &SystemHandler{projectName: projectName, version: version, db: db}
}

func (h *SystemHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, model.ServiceInfo{
		Message: h.projectName + " is running!",
		Version: h.version,
	}, nil)
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeSuccess(w, http.StatusOK, model.HealthStatus{Status: "healthy"}, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(model.APIResponse{
			Success: false,
			Data:    model.HealthStatus{Status: "unhealthy", Database: "unreachable"},
		})
		return
	}

	writeSuccess(w, http.StatusOK, model.HealthStatus{Status: "healthy", Database: "ok"}, nil)
}
