package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Redis   string `json:"redis,omitempty"`
}

// HealthHandler returns the health check handler. When redis is non-nil it
// is pinged, and an unreachable redis turns the answer into a 503.
func HealthHandler(redis Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Version: "1.0.0"}
		if redis == nil {
			respondJSON(w, http.StatusOK, resp)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := redis.Ping(ctx); err != nil {
			logger.Warn("health check: redis unreachable", "error", err)
			resp.Status = "degraded"
			resp.Redis = "unreachable"
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Redis = "ok"
		respondJSON(w, http.StatusOK, resp)
	}
}
