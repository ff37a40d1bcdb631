package health

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// DefaultStatusProbeTimeout bounds a single status request including the
// backend callout.
const DefaultStatusProbeTimeout = 10 * time.Second

// Prober produces the outcome of the backend healthcheck callout.
// When fresh is true any cached outcome must be bypassed.
type Prober interface {
	Probe(ctx context.Context, fresh bool) ProbeOutcome
}

// HandlerConfig holds configuration for the health handler.
type HandlerConfig struct {
	// StatusProbeTimeout is the timeout for the status endpoint.
	StatusProbeTimeout time.Duration
}

// DefaultHandlerConfig returns a HandlerConfig with default values.
func DefaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		StatusProbeTimeout: DefaultStatusProbeTimeout,
	}
}

// identity is swapped as a whole on reload.
type identity struct {
	builder  *Builder
	revision string
}

// Handler serves the ping, status, liveness and readiness endpoints.
type Handler struct {
	prober    Prober
	logger    observability.Logger
	metrics   *HealthMetrics
	config    *HandlerConfig
	ident     atomic.Pointer[identity]
	ready     atomic.Bool
	startTime time.Time
}

// HandlerOption is a functional option for the handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger observability.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithHandlerConfig sets the handler configuration.
func WithHandlerConfig(config *HandlerConfig) HandlerOption {
	return func(h *Handler) {
		if config != nil {
			h.config = config
		}
	}
}

// WithMetrics sets the metrics used by the handler.
func WithMetrics(metrics *HealthMetrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// NewHandler creates a health handler.
func NewHandler(prober Prober, release ReleaseInfo, revision string, opts ...HandlerOption) *Handler {
	h := &Handler{
		prober:    prober,
		logger:    observability.NopLogger(),
		metrics:   GetHealthMetrics(),
		config:    DefaultHandlerConfig(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.Update(release, revision)
	return h
}

// Update swaps the release identity and revision stamped on reports.
func (h *Handler) Update(release ReleaseInfo, revision string) {
	h.ident.Store(&identity{
		builder:  NewBuilder(release),
		revision: revision,
	})
}

// SetReady marks the service as ready or not ready to serve traffic.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness flag.
func (h *Handler) IsReady() bool {
	return h.ready.Load()
}

func (h *Handler) statusTimeout() time.Duration {
	if h.config != nil && h.config.StatusProbeTimeout > 0 {
		return h.config.StatusProbeTimeout
	}
	return DefaultStatusProbeTimeout
}

// PingHandler returns identity information without probing anything.
func (h *Handler) PingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.metrics.RecordCheck("ping")

		id := h.ident.Load()
		c.Data(http.StatusOK, ContentTypeJSON, Encode(id.builder.Ping(id.revision)))
	}
}

// StatusHandler probes the backend and renders the health report.
// The verdict is carried in the body; the HTTP status is always 200.
func (h *Handler) StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.metrics.RecordCheck("status")

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.statusTimeout())
		defer cancel()

		fresh := NoCacheRequested(c.GetHeader(HeaderCacheControl))

		id := h.ident.Load()
		outcome := h.prober.Probe(ctx, fresh)
		outcome.Revision = id.revision

		report := id.builder.Build(outcome)
		h.metrics.RecordReport(report.Status)

		logger := h.logger.WithContext(ctx)
		if report.Status != StatusPass {
			logger.Warn("healthcheck service reported failure",
				observability.String("url", outcome.RequestURL),
				observability.Bool("call_failed", outcome.CallFailed),
				observability.String("timeout", TimeoutFlag(outcome)),
			)
		} else {
			logger.Debug("healthcheck service passed",
				observability.String("url", outcome.RequestURL),
			)
		}

		c.Data(http.StatusOK, ContentTypeJSON, Encode(report))
	}
}

// LivenessHandler returns a handler for liveness probes.
func (h *Handler) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.metrics.RecordCheck("liveness")

		c.JSON(http.StatusOK, gin.H{
			"status": StatusPass,
			"uptime": time.Since(h.startTime).Round(time.Second).String(),
		})
	}
}

// ReadinessHandler returns a handler for readiness probes.
func (h *Handler) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.metrics.RecordCheck("readiness")

		if !h.IsReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": StatusFail})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": StatusPass})
	}
}

// RegisterRoutes registers the health routes on a Gin engine. Extra
// handlers run before the status handler.
func (h *Handler) RegisterRoutes(engine *gin.Engine, statusMiddleware ...gin.HandlerFunc) {
	engine.GET(PathPing, h.PingHandler())
	statusChain := make([]gin.HandlerFunc, 0, len(statusMiddleware)+1)
	statusChain = append(statusChain, statusMiddleware...)
	engine.GET(PathStatus, append(statusChain, h.StatusHandler())...)
	engine.GET(PathHealthz, h.LivenessHandler())
	engine.GET(PathReadyz, h.ReadinessHandler())
}

// NoCacheRequested reports whether a Cache-Control header value carries
// the no-cache directive.
func NoCacheRequested(cacheControl string) bool {
	for _, directive := range strings.Split(cacheControl, ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "no-cache") {
			return true
		}
	}
	return false
}
