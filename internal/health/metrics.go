package health

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// HealthMetrics holds Prometheus metrics for health reports.
type HealthMetrics struct {
	reportsTotal *prometheus.CounterVec
	checksTotal  *prometheus.CounterVec
}

var (
	healthMetricsInstance *HealthMetrics
	healthMetricsOnce     sync.Once
)

// GetHealthMetrics returns the singleton health metrics instance.
func GetHealthMetrics() *HealthMetrics {
	healthMetricsOnce.Do(func() {
		healthMetricsInstance = &HealthMetrics{
			reportsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "avastatus",
					Subsystem: "health",
					Name:      "reports_total",
					Help: "Total number of " +
						"status reports rendered",
				},
				[]string{"status"},
			),
			checksTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "avastatus",
					Subsystem: "health",
					Name:      "checks_total",
					Help: "Total number of " +
						"probe requests served",
				},
				[]string{"type"},
			),
		}
	})
	return healthMetricsInstance
}

// MustRegister registers all health metric collectors with the given
// Prometheus registry. Collectors already registered there are skipped.
func (m *HealthMetrics) MustRegister(registry *prometheus.Registry) {
	for _, c := range []prometheus.Collector{m.reportsTotal, m.checksTotal} {
		if err := registry.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}
}

// Init pre-initializes label combinations so that they appear in
// /metrics output immediately after startup.
func (m *HealthMetrics) Init() {
	for _, s := range []Status{StatusPass, StatusFail} {
		m.reportsTotal.WithLabelValues(string(s))
	}
	for _, t := range []string{"ping", "status", "liveness", "readiness"} {
		m.checksTotal.WithLabelValues(t)
	}
}

// RecordReport counts a rendered status report.
func (m *HealthMetrics) RecordReport(status Status) {
	m.reportsTotal.WithLabelValues(string(status)).Inc()
}

// RecordCheck counts a served probe endpoint request.
func (m *HealthMetrics) RecordCheck(checkType string) {
	m.checksTotal.WithLabelValues(checkType).Inc()
}
