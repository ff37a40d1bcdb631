package health

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderCacheControl is the Cache-Control header name.
	HeaderCacheControl = "Cache-Control"

	// HeaderCorrelationID carries the caller's correlation ID.
	HeaderCorrelationID = "X-Correlation-ID"
)

// Content type constants.
const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"
)

// Endpoint paths.
const (
	PathPing    = "/_ping"
	PathStatus  = "/_status"
	PathHealthz = "/healthz"
	PathReadyz  = "/readyz"
)
