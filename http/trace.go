package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderTraceID = "X-Trace-Id"
	traceIDField  = "trace_id"
)

type traceIDKey struct{}

// TraceIDMiddleware reuses the caller's X-Trace-Id or generates one, and
// echoes it on the response.
func TraceIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := strings.TrimSpace(r.Header.Get(HeaderTraceID))
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set(HeaderTraceID, traceID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), traceIDKey{}, traceID)))
	})
}

func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
