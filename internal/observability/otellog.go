package observability

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"go.opentelemetry.io/otel"
)

// NewLogrLogger adapts a Logger to logr. Messages from every logr
// verbosity are written at debug level.
func NewLogrLogger(logger Logger) logr.Logger {
	return funcr.New(func(prefix, args string) {
		logger.Debug("otel", String("prefix", prefix), String("args", args))
	}, funcr.Options{})
}

// BridgeOTel routes OpenTelemetry's internal diagnostics and export
// errors into logger.
func BridgeOTel(logger Logger) {
	otel.SetLogger(NewLogrLogger(logger))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn("opentelemetry error", Error(err))
	}))
}
