// Package middleware provides the HTTP middleware of the status service.
//
// Two flavours exist. Request-scoped plumbing wraps the whole server as
// func(http.Handler) http.Handler:
//
//   - RequestID and CorrelationID tag the request context
//   - Logging writes one access log line per request
//   - Recovery turns a panic into a 500 OperationOutcome
//
// Endpoint guards are gin handlers attached to individual routes:
//
//   - APIKey rejects callers without a configured key
//   - RateLimit bounds how often a route may be called
//
// Error bodies are FHIR OperationOutcome documents, see WriteOutcome.
package middleware
