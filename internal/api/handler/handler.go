// Package handler provides HTTP handlers for the notification service API.
package handler

import (
	"net/http"
	"time"

	"github.com/omkrako/phiz/internal/api/respond"
	"github.com/omkrako/phiz/internal/config"
	"github.com/omkrako/phiz/internal/db"
	"github.com/omkrako/phiz/internal/notifications"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool       *db.Pool
	dispatcher *notifications.Dispatcher
	cfg        *config.Config
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, dispatcher *notifications.Dispatcher, cfg *config.Config) *Handler {
	return &Handler{
		pool:       pool,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Phiz Notification Service",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteErrorDetail(w, http.StatusServiceUnavailable,
			"DB_UNAVAILABLE", "Database is unreachable", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
	})
}
