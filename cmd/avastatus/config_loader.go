package main

import (
	"github.com/vyrodovalexey/avastatus/internal/config"
	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.StatusConfig {
	logger.Info("starting avastatus",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fatalWithSync(logger, "failed to load configuration", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	if err := config.ValidateConfig(cfg); err != nil {
		fatalWithSync(logger, "invalid configuration", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	logger.Info("configuration loaded",
		observability.String("name", cfg.Metadata.Name),
		observability.String("release", cfg.Spec.Release.Version),
		observability.String("revision", cfg.Spec.Revision),
		observability.String("healthcheck_url", cfg.Spec.Healthcheck.URL),
		observability.Bool("cache", cfg.CacheEnabled()),
		observability.Bool("metrics", cfg.MetricsEnabled()),
	)

	return cfg
}

// initTracer initializes the tracer.
func initTracer(cfg *config.StatusConfig, logger observability.Logger) *observability.Tracer {
	tracerCfg := observability.TracerConfig{
		ServiceName:    config.DefaultServiceName,
		ServiceVersion: cfg.Spec.Release.Version,
		Enabled:        false,
		SamplingRate:   1.0,
	}

	if cfg.Spec.Observability != nil && cfg.Spec.Observability.Tracing != nil {
		tracing := cfg.Spec.Observability.Tracing
		tracerCfg.Enabled = tracing.Enabled
		tracerCfg.SamplingRate = tracing.SamplingRate
		tracerCfg.OTLPEndpoint = tracing.OTLPEndpoint
		if tracing.ServiceName != "" {
			tracerCfg.ServiceName = tracing.ServiceName
		}
	}

	tracer, err := observability.NewTracer(tracerCfg)
	if err != nil {
		fatalWithSync(logger, "failed to initialize tracer", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	return tracer
}
