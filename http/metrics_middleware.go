package http

import (
	"net/http"
	"strconv"
	"time"

	"smartsacco/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request count and latency. Requests are
// labelled by the matched route pattern to keep label cardinality bounded.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
