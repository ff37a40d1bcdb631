package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")

	require.NotNil(t, m.Registry())
	assert.NotNil(t, findFamily(t, m, "avastatus_start_time_seconds"))
}

func TestMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordRequest(http.MethodGet, "/_status", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requestsTotal.WithLabelValues(http.MethodGet, "/_status", "200"),
	))
}

func TestMetrics_RecordProbe(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordProbe("success", 5*time.Millisecond)
	m.RecordProbe("error", time.Second)
	m.RecordProbe("error", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.probeOutcomes.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.probeOutcomes.WithLabelValues("error")))

	family := findFamily(t, m, "test_probe_duration_seconds")
	require.NotNil(t, family)
	assert.Equal(t, dto.MetricType_HISTOGRAM, family.GetType())
}

func TestMetrics_SetBuildInfo(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.SetBuildInfo("v1", "100", "abc")
	m.SetBuildInfo("v2", "101", "def")

	family := findFamily(t, m, "test_build_info")
	require.NotNil(t, family)
	require.Len(t, family.GetMetric(), 1)

	labels := map[string]string{}
	for _, l := range family.GetMetric()[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, "v2", labels["version"])
	assert.Equal(t, "101", labels["release_id"])
	assert.Equal(t, "def", labels["commit"])
}

func TestMetrics_CircuitBreakerAndRateLimit(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.SetCircuitBreakerState("healthcheck", 2)
	m.RecordRateLimitHit("/_status")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.circuitBreaker.WithLabelValues("healthcheck")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitHits.WithLabelValues("/_status")))
}

func TestMetrics_RegisterCollector(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "test",
		Name:      "extra_total",
		Help:      "Extra counter",
	})

	require.NoError(t, m.RegisterCollector(counter))
	assert.Error(t, m.RegisterCollector(counter))

	counter.Inc()
	require.NotNil(t, findFamily(t, m, "test_extra_total"))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordProbe("success", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_probe_outcomes_total")
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	handler := MetricsMiddleware(m, "/_ping")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_ping" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/_ping", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/_ping", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRequests))
}
