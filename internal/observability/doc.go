// Package observability provides logging, metrics, and tracing
// functionality for the status service.
//
// Structured logging is backed by zap, metrics by a private Prometheus
// registry and tracing by OpenTelemetry with OTLP gRPC export.
//
// # Logging
//
//	logger, err := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("status rendered",
//	    observability.String("status", "pass"),
//	)
//
// # Metrics
//
//	metrics := observability.NewMetrics("avastatus")
//	mux.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
//	tracer, err := observability.NewTracer(observability.TracerConfig{
//	    ServiceName:  "avastatus",
//	    OTLPEndpoint: "localhost:4317",
//	    SamplingRate: 0.1,
//	    Enabled:      true,
//	})
//	defer tracer.Shutdown(ctx)
package observability
