package probe

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// BreakerStateFunc is called when the circuit breaker changes state.
// The state is 0 for closed, 1 for half-open and 2 for open.
type BreakerStateFunc func(name string, state int)

// newBreaker builds a breaker that opens after threshold consecutive
// failed callouts and probes again after timeout.
func newBreaker(
	name string,
	threshold int,
	timeout time.Duration,
	logger observability.Logger,
	onState BreakerStateFunc,
) *gobreaker.CircuitBreaker {
	thresholdU32 := safeIntToUint32(threshold)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= thresholdU32
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("healthcheck circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)

			_, span := tracer.Start(context.Background(),
				"probe.circuitbreaker.state_change",
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			span.AddEvent("state_change", trace.WithAttributes(
				attribute.String("circuitbreaker.name", name),
				attribute.String("circuitbreaker.from", from.String()),
				attribute.String("circuitbreaker.to", to.String()),
			))
			span.End()

			if onState != nil {
				onState(name, int(to))
			}
		},
	})
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
