package middleware

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

const TraceIDHeader = "X-Trace-ID"

// RequestID accepts a caller-supplied X-Trace-ID or mints one, echoes it on
// the response and scopes the request logger with it. Must run after chi's
// RequestID so both ids end up on the logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(),
			"trace_id", traceID,
			"request_id", middleware.GetReqID(r.Context()))

		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
