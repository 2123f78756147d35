package http

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"smartsacco/domain"
	"smartsacco/observability"
)

func clientKey(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func RateLimitMiddleware(
	limiter *RateLimiter,
	logger *zap.Logger,
	next http.Handler,
) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if !limiter.Allow(clientKey(r)) {
			observability.RateLimited.Inc()
			writeError(w, r, logger, domain.NewAppError(domain.ErrRateLimitedCode, "", nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}
