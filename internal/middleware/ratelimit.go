package middleware

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// RateLimitHitFunc is called for every rejected request.
type RateLimitHitFunc func(route string)

// RateLimiter is a process-wide token bucket shared by the routes it
// guards. Its limits may be replaced while serving.
type RateLimiter struct {
	limiter atomic.Pointer[rate.Limiter]
	logger  observability.Logger
	onHit   RateLimitHitFunc
}

// RateLimiterOption is a functional option for configuring the rate limiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterLogger sets the logger for the rate limiter.
func WithRateLimiterLogger(logger observability.Logger) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.logger = logger
	}
}

// WithRateLimitHitCallback observes rejected requests.
func WithRateLimitHitCallback(fn RateLimitHitFunc) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.onHit = fn
	}
}

// NewRateLimiter creates a rate limiter allowing rps requests per second
// with the given burst.
func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(rl)
	}

	rl.SetLimit(rps, burst)
	return rl
}

// SetLimit replaces the bucket. The new bucket starts full.
func (rl *RateLimiter) SetLimit(rps float64, burst int) {
	rl.limiter.Store(rate.NewLimiter(rate.Limit(rps), burst))
}

// Allow reports whether a request may proceed now.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Load().Allow()
}

// Handler returns the gin middleware.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		mm := GetMiddlewareMetrics()
		if rl.Allow() {
			mm.rateLimitAllowed.WithLabelValues(route).Inc()
			c.Next()
			return
		}

		mm.rateLimitRejected.WithLabelValues(route).Inc()
		if rl.onHit != nil {
			rl.onHit(route)
		}

		rl.logger.WithContext(c.Request.Context()).Warn("rate limit exceeded",
			observability.String("path", c.Request.URL.Path),
			observability.String("remote_addr", c.ClientIP()),
		)

		c.Header(HeaderRetryAfter, "1")
		WriteOutcome(c.Writer, http.StatusTooManyRequests, "Rate limit exceeded")
		c.Abort()
	}
}

// unmatchedRoute labels requests gin could not route.
const unmatchedRoute = "unmatched"
