package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOperationOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		issueCode string
		code      string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, issueCode: "forbidden", code: "ACCESS_DENIED"},
		{name: "not found", status: http.StatusNotFound, issueCode: "not-found", code: "NOT_IMPLEMENTED"},
		{name: "method not allowed", status: http.StatusMethodNotAllowed, issueCode: "not-supported", code: "NOT_IMPLEMENTED"},
		{name: "throttled", status: http.StatusTooManyRequests, issueCode: "throttled", code: "TOO_MANY_REQUESTS"},
		{name: "internal", status: http.StatusInternalServerError, issueCode: "exception", code: "INTERNAL_SERVER_ERROR"},
		{name: "unmapped falls back to internal", status: http.StatusTeapot, issueCode: "exception", code: "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			oo := NewOperationOutcome(tt.status, "diag")

			assert.Equal(t, "OperationOutcome", oo.ResourceType)
			require.Len(t, oo.Issue, 1)
			issue := oo.Issue[0]
			assert.Equal(t, "error", issue.Severity)
			assert.Equal(t, tt.issueCode, issue.Code)
			assert.Equal(t, "diag", issue.Diagnostics)
			require.Len(t, issue.Details.Coding, 1)
			assert.Equal(t, ErrorCodeSystem, issue.Details.Coding[0].System)
			assert.Equal(t, tt.code, issue.Details.Coding[0].Code)
		})
	}
}

func TestWriteOutcome(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteOutcome(rec, http.StatusUnauthorized, "Invalid access token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ContentTypeJSON, rec.Header().Get(HeaderContentType))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OperationOutcome", body["resourceType"])
}
