package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// APIKeyAuth guards routes with a static set of API keys. Keys are held
// as SHA-256 digests and may be replaced while serving.
type APIKeyAuth struct {
	header string
	hashes atomic.Pointer[[][sha256.Size]byte]
	logger observability.Logger
}

// APIKeyOption configures an APIKeyAuth.
type APIKeyOption func(*APIKeyAuth)

// WithAPIKeyLogger sets the logger for rejected requests.
func WithAPIKeyLogger(logger observability.Logger) APIKeyOption {
	return func(a *APIKeyAuth) {
		a.logger = logger
	}
}

// NewAPIKeyAuth creates an API key guard reading the given header.
func NewAPIKeyAuth(header string, keys []string, opts ...APIKeyOption) *APIKeyAuth {
	if header == "" {
		header = DefaultAPIKeyHeader
	}

	a := &APIKeyAuth{
		header: header,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.SetKeys(keys)
	return a
}

// SetKeys replaces the accepted keys. Empty keys are ignored.
func (a *APIKeyAuth) SetKeys(keys []string) {
	hashes := make([][sha256.Size]byte, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		hashes = append(hashes, sha256.Sum256([]byte(k)))
	}
	a.hashes.Store(&hashes)
}

// Valid reports whether key matches one of the accepted keys. Every
// stored key is compared so timing does not reveal which one matched.
func (a *APIKeyAuth) Valid(key string) bool {
	if key == "" {
		return false
	}

	provided := sha256.Sum256([]byte(key))
	match := 0
	for _, stored := range *a.hashes.Load() {
		match |= subtle.ConstantTimeCompare(provided[:], stored[:])
	}
	return match == 1
}

// Handler returns the gin middleware.
func (a *APIKeyAuth) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(a.header)

		reason := ""
		switch {
		case key == "":
			reason = "missing"
		case !a.Valid(key):
			reason = "invalid"
		}

		if reason == "" {
			c.Next()
			return
		}

		GetMiddlewareMetrics().authRejected.WithLabelValues(reason).Inc()
		a.logger.WithContext(c.Request.Context()).Warn("api key rejected",
			observability.String("path", c.Request.URL.Path),
			observability.String("reason", reason),
		)

		WriteOutcome(c.Writer, http.StatusUnauthorized, "Invalid access token")
		c.Abort()
	}
}
