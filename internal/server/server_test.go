package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avastatus/internal/config"
	"github.com/vyrodovalexey/avastatus/internal/health"
	"github.com/vyrodovalexey/avastatus/internal/middleware"
	"github.com/vyrodovalexey/avastatus/internal/observability"
)

type fixedProber struct {
	code int
}

func (p fixedProber) Probe(_ context.Context, _ bool) health.ProbeOutcome {
	code := p.code
	return health.ProbeOutcome{
		ResponseCode: &code,
		RequestURL:   "http://backend/healthcheck",
	}
}

func newHealthHandler() *health.Handler {
	return health.NewHandler(fixedProber{code: http.StatusOK},
		health.ReleaseInfo{Version: "status-pr-439", ReleaseID: "13860", CommitID: "f9a4316"},
		"12",
		health.WithLogger(observability.NopLogger()),
	)
}

func testListener() config.ListenerConfig {
	return config.ListenerConfig{
		Address:      "127.0.0.1:0",
		ReadTimeout:  config.Duration(5 * time.Second),
		WriteTimeout: config.Duration(5 * time.Second),
	}
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    State
		expected string
	}{
		{StateStopped, "stopped"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	srv := New(testListener(), newHealthHandler(),
		WithMetricsHandler("/metrics", metricsHandler),
	)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedIssue  string
	}{
		{name: "ping", method: http.MethodGet, path: health.PathPing, expectedStatus: http.StatusOK},
		{name: "status", method: http.MethodGet, path: health.PathStatus, expectedStatus: http.StatusOK},
		{name: "liveness", method: http.MethodGet, path: health.PathHealthz, expectedStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{
			name: "unknown path", method: http.MethodGet, path: "/nope",
			expectedStatus: http.StatusNotFound, expectedIssue: "not-found",
		},
		{
			name: "wrong method", method: http.MethodPost, path: health.PathStatus,
			expectedStatus: http.StatusMethodNotAllowed, expectedIssue: "not-supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(srv.Handler(), tt.method, tt.path)
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedIssue == "" {
				return
			}
			var outcome middleware.OperationOutcome
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
			assert.Equal(t, "OperationOutcome", outcome.ResourceType)
			require.Len(t, outcome.Issue, 1)
			assert.Equal(t, tt.expectedIssue, outcome.Issue[0].Code)
			assert.Contains(t, outcome.Issue[0].Diagnostics, tt.path)
		})
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	t.Parallel()

	srv := New(testListener(), newHealthHandler())

	rec := serve(srv.Handler(), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_StatusMiddleware(t *testing.T) {
	t.Parallel()

	deny := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	}
	srv := New(testListener(), newHealthHandler(), WithStatusMiddleware(deny))

	assert.Equal(t, http.StatusUnauthorized, serve(srv.Handler(), http.MethodGet, health.PathStatus).Code)
	assert.Equal(t, http.StatusOK, serve(srv.Handler(), http.MethodGet, health.PathPing).Code)
}

func TestServer_MiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	record := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	srv := New(testListener(), newHealthHandler(),
		WithMiddleware(record("outer"), record("inner")),
	)

	rec := serve(srv.Handler(), http.MethodGet, health.PathPing)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestServer_Lifecycle(t *testing.T) {
	t.Parallel()

	h := newHealthHandler()
	srv := New(testListener(), h, WithShutdownTimeout(5*time.Second))

	assert.Equal(t, StateStopped, srv.State())
	assert.Nil(t, srv.Addr())
	assert.Zero(t, srv.Uptime())
	assert.False(t, h.IsReady())

	require.NoError(t, srv.Start(context.Background()))
	assert.Equal(t, StateRunning, srv.State())
	assert.True(t, h.IsReady())
	require.NotNil(t, srv.Addr())

	resp, err := http.Get("http://" + srv.Addr().String() + health.PathPing)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), `{"status":"pass"`))

	err = srv.Start(context.Background())
	assert.Error(t, err)

	require.NoError(t, srv.Stop(context.Background()))
	assert.Equal(t, StateStopped, srv.State())
	assert.False(t, h.IsReady())

	assert.Error(t, srv.Stop(context.Background()))
}

func TestServer_Restart(t *testing.T) {
	t.Parallel()

	srv := New(testListener(), newHealthHandler())

	for i := 0; i < 2; i++ {
		require.NoError(t, srv.Start(context.Background()))
		assert.Equal(t, StateRunning, srv.State())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		require.NoError(t, srv.Stop(ctx))
		cancel()
	}
}

func TestServer_StartInvalidAddress(t *testing.T) {
	t.Parallel()

	cfg := testListener()
	cfg.Address = "127.0.0.1:-1"
	srv := New(cfg, newHealthHandler())

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
	assert.Equal(t, StateStopped, srv.State())
}

func TestServer_DefaultAddress(t *testing.T) {
	t.Parallel()

	srv := New(config.ListenerConfig{}, newHealthHandler())
	assert.Equal(t, config.DefaultListenAddress, srv.config.Address)
	assert.NotNil(t, srv.engine)
}
