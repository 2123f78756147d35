package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Assessments   *AssessmentHandler
	Members       *MemberHandler
	CounterOffers *CounterOfferHandler
	Health        *HealthHandler
	RateLimiter   *RateLimiter
	MetricsPath   string
	Logger        *zap.Logger
}

// NewRouter registers every route. API routes share the per-client rate
// limiter; health and metrics do not.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimitMiddleware(cfg.RateLimiter, cfg.Logger, h)
	}

	mux.Handle("POST /loan/assess", limited(cfg.Assessments.Assess))
	mux.Handle("POST /loan/assess/snapshot", limited(cfg.Assessments.AssessSnapshot))
	mux.Handle("POST /loan/counter-offer", limited(cfg.CounterOffers.Recommend))
	mux.Handle("GET /assessments/{id}", limited(cfg.Assessments.Get))
	mux.Handle("GET /members", limited(cfg.Members.Search))
	mux.Handle("GET /members/{id}", limited(cfg.Members.Get))
	mux.Handle("GET /members/{id}/assessments", limited(cfg.Assessments.History))

	mux.HandleFunc("GET /healthz", cfg.Health.Healthz)
	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	return TraceIDMiddleware(MetricsMiddleware(mux))
}
