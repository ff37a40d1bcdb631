package main

import (
	"github.com/vyrodovalexey/avastatus/internal/config"
	"github.com/vyrodovalexey/avastatus/internal/health"
	"github.com/vyrodovalexey/avastatus/internal/middleware"
	"github.com/vyrodovalexey/avastatus/internal/observability"
	"github.com/vyrodovalexey/avastatus/internal/server"
)

// buildMiddlewareChain builds the net/http middleware wrapped around the
// engine. The execution order (outermost executes first):
// Recovery -> RequestID -> CorrelationID -> Logging -> Tracing -> Metrics
//
// Correlation IDs are set before Logging and Tracing so both can attach
// them. Route guards (rate limit, API key) run inside the engine.
func buildMiddlewareChain(
	cfg *config.StatusConfig,
	logger observability.Logger,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
) []server.Middleware {
	routes := []string{health.PathPing, health.PathStatus, health.PathHealthz, health.PathReadyz}
	quiet := []string{health.PathHealthz, health.PathReadyz}
	if cfg.MetricsEnabled() {
		path := cfg.Spec.Observability.Metrics.Path
		routes = append(routes, path)
		quiet = append(quiet, path)
	}

	return []server.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		middleware.Logging(logger, quiet...),
		observability.TracingMiddleware(tracer),
		observability.MetricsMiddleware(metrics, routes...),
	}
}
