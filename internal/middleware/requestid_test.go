package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/avastatus/internal/observability"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing string
	}{
		{name: "generates new request ID"},
		{name: "uses existing request ID", existing: "existing-request-id-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var captured string
			handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = observability.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/_ping", nil)
			if tt.existing != "" {
				req.Header.Set(HeaderXRequestID, tt.existing)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.NotEmpty(t, captured)
			assert.Equal(t, rec.Header().Get(HeaderXRequestID), captured)
			if tt.existing != "" {
				assert.Equal(t, tt.existing, captured)
			}
		})
	}
}

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing string
	}{
		{name: "echoes caller correlation ID", existing: "11C46F5F-CDEF-4865-94B2-0EE0EDCC26DA"},
		{name: "generates a UUID when absent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var captured string
			handler := CorrelationID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = observability.CorrelationIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/_status", nil)
			if tt.existing != "" {
				req.Header.Set(HeaderXCorrelationID, tt.existing)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			echoed := rec.Header().Get(HeaderXCorrelationID)
			assert.Equal(t, echoed, captured)
			if tt.existing != "" {
				assert.Equal(t, tt.existing, echoed)
				return
			}
			_, err := uuid.Parse(echoed)
			assert.NoError(t, err)
		})
	}
}
