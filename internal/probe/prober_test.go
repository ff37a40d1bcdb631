package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avastatus/internal/health"
	"github.com/vyrodovalexey/avastatus/internal/observability"
)

func statusServer(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code == http.StatusMovedPermanently {
			http.Redirect(w, r, "/elsewhere", code)
			return
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProber_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		code       int
		body       string
		wantResult string
	}{
		{name: "ok", code: http.StatusOK, body: `{"ping":"pong"}`, wantResult: ResultSuccess},
		{name: "no content", code: http.StatusNoContent, wantResult: ResultSuccess},
		{name: "not found", code: http.StatusNotFound, body: "missing", wantResult: ResultFailure},
		{name: "server error", code: http.StatusInternalServerError, body: "boom", wantResult: ResultFailure},
		{name: "redirect is not followed", code: http.StatusMovedPermanently, wantResult: ResultFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := statusServer(t, tt.code, tt.body)
			p := NewHTTPProber(srv.URL + "/healthcheck")

			outcome := p.Probe(context.Background(), false)

			require.NotNil(t, outcome.ResponseCode)
			assert.Equal(t, tt.code, *outcome.ResponseCode)
			assert.False(t, outcome.CallFailed)
			assert.Equal(t, srv.URL+"/healthcheck", outcome.RequestURL)
			require.NotNil(t, outcome.ResponseBody)
			if tt.body != "" {
				assert.Equal(t, tt.body, *outcome.ResponseBody)
			}
			assert.Equal(t, tt.wantResult, resultOf(outcome))
		})
	}
}

func TestHTTPProber_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	outcome := NewHTTPProber(url).Probe(context.Background(), false)

	assert.True(t, outcome.CallFailed)
	assert.Nil(t, outcome.ResponseCode)
	assert.Nil(t, outcome.ResponseBody)
	assert.Equal(t, url, outcome.RequestURL)
	assert.Equal(t, health.StatusFail, health.CheckStatus(outcome))
	assert.Equal(t, "true", health.TimeoutFlag(outcome))
}

func TestHTTPProber_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	p := NewHTTPProber(srv.URL, WithTimeout(50*time.Millisecond))

	start := time.Now()
	outcome := p.Probe(context.Background(), false)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, outcome.CallFailed)
	assert.Nil(t, outcome.ResponseCode)
}

func TestHTTPProber_BodyCapped(t *testing.T) {
	t.Parallel()

	srv := statusServer(t, http.StatusOK, strings.Repeat("a", MaxBodyBytes+100))
	outcome := NewHTTPProber(srv.URL).Probe(context.Background(), false)

	require.NotNil(t, outcome.ResponseBody)
	assert.Len(t, *outcome.ResponseBody, MaxBodyBytes)
}

func TestHTTPProber_PropagatesCorrelationID(t *testing.T) {
	t.Parallel()

	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get(health.HeaderCorrelationID))
	}))
	t.Cleanup(srv.Close)

	ctx := observability.ContextWithCorrelationID(context.Background(), "11C46F5F-CDEF-4865-94B2-0EE0EDCC26DA")
	NewHTTPProber(srv.URL).Probe(ctx, false)

	assert.Equal(t, "11C46F5F-CDEF-4865-94B2-0EE0EDCC26DA", seen.Load())
}

func TestHTTPProber_InvalidURL(t *testing.T) {
	t.Parallel()

	outcome := NewHTTPProber("http://bad host/").Probe(context.Background(), false)

	assert.True(t, outcome.CallFailed)
	assert.Nil(t, outcome.ResponseCode)
}

func TestHTTPProber_CircuitBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	var states []int
	metrics := observability.NewMetrics("probe_cb_test")
	p := NewHTTPProber(srv.URL,
		WithCircuitBreaker(2, time.Hour),
		WithMetrics(metrics),
		WithBreakerStateCallback(func(_ string, state int) { states = append(states, state) }),
	)

	for i := 0; i < 2; i++ {
		outcome := p.Probe(context.Background(), false)
		require.NotNil(t, outcome.ResponseCode)
		assert.Equal(t, http.StatusServiceUnavailable, *outcome.ResponseCode)
	}

	outcome := p.Probe(context.Background(), false)
	assert.True(t, outcome.CallFailed)
	assert.Nil(t, outcome.ResponseCode)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []int{2}, states)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	gauge := -1.0
	for _, mf := range families {
		if mf.GetName() == "probe_cb_test_circuit_breaker_state" {
			gauge = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(2), gauge)
}

func TestHTTPProber_BreakerIgnoresClientErrors(t *testing.T) {
	t.Parallel()

	srv := statusServer(t, http.StatusNotFound, "")
	p := NewHTTPProber(srv.URL, WithCircuitBreaker(1, time.Hour))

	for i := 0; i < 3; i++ {
		outcome := p.Probe(context.Background(), false)
		require.NotNil(t, outcome.ResponseCode)
		assert.Equal(t, http.StatusNotFound, *outcome.ResponseCode)
	}
}

func TestHTTPProber_BreakerIgnoresAbortedCallers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	var states []int
	p := NewHTTPProber(srv.URL,
		WithCircuitBreaker(1, time.Hour),
		WithBreakerStateCallback(func(_ string, state int) { states = append(states, state) }),
	)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		outcome := p.Probe(ctx, false)
		cancel()
		assert.True(t, outcome.CallFailed)
	}

	outcome := p.Probe(context.Background(), false)
	require.NotNil(t, outcome.ResponseCode)
	assert.Equal(t, http.StatusOK, *outcome.ResponseCode)
	assert.Empty(t, states)
}

func TestHTTPProber_RecordsMetrics(t *testing.T) {
	t.Parallel()

	srv := statusServer(t, http.StatusOK, "")
	metrics := observability.NewMetrics("probe_metrics_test")
	p := NewHTTPProber(srv.URL, WithMetrics(metrics), WithLogger(observability.NopLogger()))

	p.Probe(context.Background(), false)
	p.Probe(context.Background(), false)

	count, err := testutil.GatherAndCount(metrics.Registry(), "probe_metrics_test_probe_outcomes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSafeIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), safeIntToUint32(-1))
	assert.Equal(t, uint32(7), safeIntToUint32(7))
}
