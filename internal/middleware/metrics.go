package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MiddlewareMetrics holds Prometheus metrics for middleware operations.
type MiddlewareMetrics struct {
	rateLimitAllowed  *prometheus.CounterVec
	rateLimitRejected *prometheus.CounterVec
	authRejected      *prometheus.CounterVec
	panicsRecovered   prometheus.Counter
}

var (
	middlewareMetrics     *MiddlewareMetrics
	middlewareMetricsOnce sync.Once
)

// GetMiddlewareMetrics returns the singleton middleware metrics instance.
func GetMiddlewareMetrics() *MiddlewareMetrics {
	middlewareMetricsOnce.Do(func() {
		middlewareMetrics = newMiddlewareMetrics()
	})
	return middlewareMetrics
}

func newMiddlewareMetrics() *MiddlewareMetrics {
	return &MiddlewareMetrics{
		rateLimitAllowed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avastatus",
				Subsystem: "middleware",
				Name:      "rate_limit_allowed_total",
				Help: "Total number of requests " +
					"allowed by rate limiter",
			},
			[]string{"route"},
		),
		rateLimitRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avastatus",
				Subsystem: "middleware",
				Name:      "rate_limit_rejected_total",
				Help: "Total number of requests " +
					"rejected by rate limiter",
			},
			[]string{"route"},
		),
		authRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avastatus",
				Subsystem: "middleware",
				Name:      "auth_rejected_total",
				Help: "Total number of requests " +
					"rejected for a missing or invalid API key",
			},
			[]string{"reason"},
		),
		panicsRecovered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "avastatus",
				Subsystem: "middleware",
				Name:      "panics_recovered_total",
				Help: "Total number of panics " +
					"recovered",
			},
		),
	}
}

// MustRegister registers all middleware metric collectors with the given
// Prometheus registry. Collectors already registered there are skipped.
func (m *MiddlewareMetrics) MustRegister(registry *prometheus.Registry) {
	for _, c := range []prometheus.Collector{
		m.rateLimitAllowed,
		m.rateLimitRejected,
		m.authRejected,
		m.panicsRecovered,
	} {
		if err := registry.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}
}
