package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthCheck probes one dependency, such as the database or Redis.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	model  string
	checks map[string]HealthCheck
	logger *zap.Logger
}

type healthResponse struct {
	Status string            `json:"status"`
	Model  string            `json:"model"`
	Checks map[string]string `json:"checks,omitempty"`
}

func NewHealthHandler(model string, checks map[string]HealthCheck, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{model: model, checks: checks, logger: logger}
}

// Healthz handles GET /healthz. Any failing check turns the response into
// a 503.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Model: h.model}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	writeJSON(w, h.logger, status, resp)
}
