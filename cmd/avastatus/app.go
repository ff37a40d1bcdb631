package main

import (
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avastatus/internal/cache"
	"github.com/vyrodovalexey/avastatus/internal/config"
	"github.com/vyrodovalexey/avastatus/internal/health"
	"github.com/vyrodovalexey/avastatus/internal/middleware"
	"github.com/vyrodovalexey/avastatus/internal/observability"
	"github.com/vyrodovalexey/avastatus/internal/probe"
	"github.com/vyrodovalexey/avastatus/internal/server"
)

// application holds all application components.
type application struct {
	server        *server.Server
	handler       *health.Handler
	cache         cache.Cache
	auth          *middleware.APIKeyAuth
	rateLimiter   *middleware.RateLimiter
	metrics       *observability.Metrics
	reloadMetrics *reloadMetrics
	tracer        *observability.Tracer
	config        atomic.Pointer[config.StatusConfig]
}

// currentConfig returns the last applied configuration. The watcher
// goroutine replaces it on reload.
func (app *application) currentConfig() *config.StatusConfig {
	return app.config.Load()
}

// initApplication initializes all application components.
func initApplication(cfg *config.StatusConfig, logger observability.Logger) *application {
	metrics := initMetrics(cfg)
	tracer := initTracer(cfg, logger)
	if tracer == nil {
		return nil // unreachable in production; allows test to continue
	}

	c, err := cache.New(cfg.Spec.Cache, logger)
	if err != nil {
		fatalWithSync(logger, "failed to create cache", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	prober := initProber(cfg, c, metrics, logger)

	handler := health.NewHandler(prober, releaseInfo(cfg), cfg.Spec.Revision,
		health.WithLogger(logger),
		health.WithMetrics(health.GetHealthMetrics()),
		health.WithHandlerConfig(&health.HandlerConfig{StatusProbeTimeout: statusProbeTimeout(cfg)}),
	)

	app := &application{
		handler:       handler,
		cache:         c,
		metrics:       metrics,
		reloadMetrics: newReloadMetrics(metrics),
		tracer:        tracer,
	}
	app.config.Store(cfg)

	srvOpts := []server.Option{
		server.WithLogger(logger),
		server.WithShutdownTimeout(cfg.Spec.Listener.ShutdownTimeout.Duration()),
		server.WithMiddleware(buildMiddlewareChain(cfg, logger, metrics, tracer)...),
		server.WithStatusMiddleware(app.statusGuards(cfg, logger)...),
	}
	if cfg.MetricsEnabled() {
		srvOpts = append(srvOpts,
			server.WithMetricsHandler(cfg.Spec.Observability.Metrics.Path, metrics.Handler()),
		)
	}

	app.server = server.New(cfg.Spec.Listener, handler, srvOpts...)

	return app
}

// initMetrics creates the service metrics and registers the package
// collectors on the same registry.
func initMetrics(cfg *config.StatusConfig) *observability.Metrics {
	metrics := observability.NewMetrics(config.DefaultServiceName)
	metrics.SetBuildInfo(cfg.Spec.Release.Version, cfg.Spec.Release.ReleaseID, cfg.Spec.Release.CommitID)

	registry := metrics.Registry()

	healthMetrics := health.GetHealthMetrics()
	healthMetrics.MustRegister(registry)
	healthMetrics.Init()

	cacheMetrics := cache.GetCacheMetrics()
	cacheMetrics.MustRegister(registry)
	cacheMetrics.Init()

	middleware.GetMiddlewareMetrics().MustRegister(registry)

	return metrics
}

// statusRequestHeadroom is added to the callout timeout to bound a whole
// status request.
const statusRequestHeadroom = 2 * time.Second

// statusProbeTimeout never cuts a callout short of its own timeout.
func statusProbeTimeout(cfg *config.StatusConfig) time.Duration {
	timeout := cfg.Spec.Healthcheck.Timeout.Duration() + statusRequestHeadroom
	if timeout < health.DefaultStatusProbeTimeout {
		return health.DefaultStatusProbeTimeout
	}
	return timeout
}

// initProber builds the healthcheck callout, wrapped by the outcome cache
// when caching is enabled.
func initProber(
	cfg *config.StatusConfig,
	c cache.Cache,
	metrics *observability.Metrics,
	logger observability.Logger,
) health.Prober {
	hc := cfg.Spec.Healthcheck

	opts := []probe.Option{
		probe.WithTimeout(hc.Timeout.Duration()),
		probe.WithLogger(logger),
		probe.WithMetrics(metrics),
	}
	if hc.CircuitBreaker != nil && hc.CircuitBreaker.Enabled {
		opts = append(opts,
			probe.WithCircuitBreaker(hc.CircuitBreaker.Threshold, hc.CircuitBreaker.Timeout.Duration()),
		)
	}

	httpProber := probe.NewHTTPProber(hc.URL, opts...)
	if !cfg.CacheEnabled() {
		return httpProber
	}

	return probe.NewCachingProber(httpProber, c, cfg.Spec.Cache.TTL.Duration(),
		probe.WithCacheLogger(logger),
	)
}

// statusGuards builds the API key and rate limit handlers that run in
// front of the status route.
func (app *application) statusGuards(cfg *config.StatusConfig, logger observability.Logger) []gin.HandlerFunc {
	var guards []gin.HandlerFunc

	if rl := cfg.Spec.RateLimit; rl != nil && rl.Enabled {
		app.rateLimiter = middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst,
			middleware.WithRateLimiterLogger(logger),
			middleware.WithRateLimitHitCallback(app.metrics.RecordRateLimitHit),
		)
		guards = append(guards, app.rateLimiter.Handler())
	}

	if sa := cfg.Spec.StatusAuth; sa != nil {
		app.auth = middleware.NewAPIKeyAuth(sa.Header, sa.APIKeys,
			middleware.WithAPIKeyLogger(logger),
		)
		guards = append(guards, app.auth.Handler())
	}

	return guards
}

// releaseInfo extracts the identity stamped on every report.
func releaseInfo(cfg *config.StatusConfig) health.ReleaseInfo {
	return health.ReleaseInfo{
		Version:   cfg.Spec.Release.Version,
		ReleaseID: cfg.Spec.Release.ReleaseID,
		CommitID:  cfg.Spec.Release.CommitID,
	}
}
