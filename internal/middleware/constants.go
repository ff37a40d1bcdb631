package middleware

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderXCorrelationID is the X-Correlation-ID header name.
	HeaderXCorrelationID = "X-Correlation-ID"
)

// ContentTypeJSON is the JSON content type.
const ContentTypeJSON = "application/json"

// DefaultAPIKeyHeader is the header carrying the caller's API key.
const DefaultAPIKeyHeader = "apikey"
