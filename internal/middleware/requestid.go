package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// RequestID returns a middleware that adds a request ID to each request.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			r = r.WithContext(observability.ContextWithRequestID(r.Context(), requestID))
			w.Header().Set(HeaderXRequestID, requestID)

			next.ServeHTTP(w, r)
		})
	}
}

// CorrelationID returns a middleware that echoes the caller's
// X-Correlation-ID, generating one when absent, and stores it in the
// request context.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := r.Header.Get(HeaderXCorrelationID)
			if correlationID == "" {
				correlationID = uuid.New().String()
			}

			r = r.WithContext(observability.ContextWithCorrelationID(r.Context(), correlationID))
			w.Header().Set(HeaderXCorrelationID, correlationID)

			next.ServeHTTP(w, r)
		})
	}
}
