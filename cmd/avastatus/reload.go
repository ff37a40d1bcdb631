package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avastatus/internal/config"
	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// reloadMetrics holds Prometheus metrics for configuration reload
// operations, registered on the service registry.
type reloadMetrics struct {
	configReloadTotal       *prometheus.CounterVec
	configReloadDuration    prometheus.Histogram
	configReloadLastSuccess prometheus.Gauge
	configWatcherStatus     prometheus.Gauge
}

// newReloadMetrics creates reload metrics and registers them with the
// registry of m.
func newReloadMetrics(m *observability.Metrics) *reloadMetrics {
	rm := &reloadMetrics{
		configReloadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.DefaultServiceName,
				Name:      "config_reload_total",
				Help: "Total number of " +
					"configuration reloads",
			},
			[]string{"result"},
		),
		configReloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: config.DefaultServiceName,
				Name: "config_reload_" +
					"duration_seconds",
				Help: "Duration of configuration " +
					"reload operations",
				Buckets: []float64{
					.001, .005, .01, .05, .1, .5, 1,
				},
			},
		),
		configReloadLastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: config.DefaultServiceName,
				Name: "config_reload_" +
					"last_success_timestamp",
				Help: "Timestamp of last successful " +
					"config reload",
			},
		),
		configWatcherStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: config.DefaultServiceName,
				Name:      "config_watcher_running",
				Help: "Whether the config file " +
					"watcher is running (1=running, 0=stopped)",
			},
		),
	}

	collectors := []prometheus.Collector{
		rm.configReloadTotal,
		rm.configReloadDuration,
		rm.configReloadLastSuccess,
		rm.configWatcherStatus,
	}
	for _, c := range collectors {
		_ = m.RegisterCollector(c)
	}

	return rm
}

// startConfigWatcher starts the configuration watcher.
func startConfigWatcher(
	ctx context.Context,
	app *application,
	configPath string,
	logger observability.Logger,
) *config.Watcher {
	rm := app.reloadMetrics

	watcher, err := config.NewWatcher(configPath, func(newCfg *config.StatusConfig) {
		logger.Info("configuration changed, reloading")
		reloadComponents(app, newCfg, logger)
	},
		config.WithLogger(logger),
		config.WithErrorCallback(func(error) {
			rm.configReloadTotal.WithLabelValues("error").Inc()
		}),
	)
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		rm.configWatcherStatus.Set(0)
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
		rm.configWatcherStatus.Set(0)
		return watcher
	}

	rm.configWatcherStatus.Set(1)
	return watcher
}

// reloadComponents applies a validated configuration. The release
// identity, API keys and rate limits are swapped in place. The listener,
// healthcheck callout, cache and observability sections are fixed at
// startup; changing them only logs a warning.
func reloadComponents(
	app *application,
	newCfg *config.StatusConfig,
	logger observability.Logger,
) {
	start := time.Now()
	oldCfg := app.currentConfig()

	app.handler.Update(releaseInfo(newCfg), newCfg.Spec.Revision)
	app.metrics.SetBuildInfo(newCfg.Spec.Release.Version, newCfg.Spec.Release.ReleaseID, newCfg.Spec.Release.CommitID)

	reloadStatusAuth(app, oldCfg, newCfg, logger)
	reloadRateLimit(app, newCfg, logger)

	restartOnly := map[string][2]interface{}{
		"listener":      {oldCfg.Spec.Listener, newCfg.Spec.Listener},
		"healthcheck":   {oldCfg.Spec.Healthcheck, newCfg.Spec.Healthcheck},
		"cache":         {oldCfg.Spec.Cache, newCfg.Spec.Cache},
		"observability": {oldCfg.Spec.Observability, newCfg.Spec.Observability},
	}
	for section, pair := range restartOnly {
		if configSectionChanged(pair[0], pair[1]) {
			logger.Warn("configuration section changed but is NOT hot-reloaded; restart to apply",
				observability.String("section", section),
			)
		}
	}

	app.config.Store(newCfg)

	app.reloadMetrics.configReloadTotal.WithLabelValues("success").Inc()
	app.reloadMetrics.configReloadDuration.Observe(time.Since(start).Seconds())
	app.reloadMetrics.configReloadLastSuccess.SetToCurrentTime()

	logger.Info("configuration applied",
		observability.String("release", newCfg.Spec.Release.Version),
		observability.String("revision", newCfg.Spec.Revision),
	)
}

// reloadStatusAuth replaces the accepted API keys.
func reloadStatusAuth(app *application, oldCfg, newCfg *config.StatusConfig, logger observability.Logger) {
	sa := newCfg.Spec.StatusAuth
	if app.auth == nil || sa == nil {
		if (app.auth == nil) != (sa == nil) {
			logger.Warn("status authentication toggled but is NOT hot-reloaded; restart to apply")
		}
		return
	}

	if oldCfg.Spec.StatusAuth != nil && oldCfg.Spec.StatusAuth.Header != sa.Header {
		logger.Warn("status authentication header changed but is NOT hot-reloaded; restart to apply")
	}

	app.auth.SetKeys(sa.APIKeys)
}

// reloadRateLimit replaces the token bucket limits.
func reloadRateLimit(app *application, newCfg *config.StatusConfig, logger observability.Logger) {
	rl := newCfg.Spec.RateLimit
	enabled := rl != nil && rl.Enabled
	if app.rateLimiter == nil || !enabled {
		if (app.rateLimiter != nil) != enabled {
			logger.Warn("rate limiting toggled but is NOT hot-reloaded; restart to apply")
		}
		return
	}

	app.rateLimiter.SetLimit(rl.RequestsPerSecond, rl.Burst)
}

// configSectionHash computes a SHA-256 hash of a configuration section.
func configSectionHash(v interface{}) ([sha256.Size]byte, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return [sha256.Size]byte{}, false
	}
	return sha256.Sum256(data), true
}

// configSectionChanged compares two configuration sections by hash,
// falling back to reflect.DeepEqual when hashing is not possible.
func configSectionChanged(oldSection, newSection interface{}) bool {
	oldHash, oldOK := configSectionHash(oldSection)
	newHash, newOK := configSectionHash(newSection)
	if oldOK && newOK {
		return oldHash != newHash
	}
	return !reflect.DeepEqual(oldSection, newSection)
}
