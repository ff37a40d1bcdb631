package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/avastatus/internal/cache"
	"github.com/vyrodovalexey/avastatus/internal/config"
	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// run starts the service and blocks until a shutdown signal arrives.
func run(app *application, configPath string, logger observability.Logger) {
	ctx := context.Background()

	if err := app.server.Start(ctx); err != nil {
		fatalWithSync(logger, "failed to start server", observability.Error(err))
		return // unreachable in production; allows test to continue
	}

	logger.Info("avastatus started",
		observability.String("address", app.server.Addr().String()),
		observability.String("version", version),
	)

	watcher := startConfigWatcher(ctx, app, configPath, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	shutdown(app, watcher, logger)
}

// shutdown stops every component in reverse start order.
func shutdown(app *application, watcher *config.Watcher, logger observability.Logger) {
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop config watcher", observability.Error(err))
		}
		app.reloadMetrics.configWatcherStatus.Set(0)
	}

	timeout := app.currentConfig().Spec.Listener.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	logCacheStats(app.cache, logger)
	if err := app.cache.Close(); err != nil {
		logger.Error("failed to close cache", observability.Error(err))
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("avastatus stopped")
}

// logCacheStats reports the outcome cache effectiveness over the
// process lifetime.
func logCacheStats(c cache.Cache, logger observability.Logger) {
	reporter, ok := c.(cache.StatsReporter)
	if !ok {
		return
	}

	stats := reporter.Stats()
	logger.Info("outcome cache statistics",
		observability.Int64("hits", stats.Hits),
		observability.Int64("misses", stats.Misses),
		observability.Int64("size", stats.Size),
		observability.Float64("hit_rate_percent", stats.HitRate()),
	)
}
