package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avastatus/internal/health"
)

func validConfig(t *testing.T) *StatusConfig {
	t.Helper()

	cfg, err := LoadConfigFromReader(strings.NewReader(validConfigYAML))
	require.NoError(t, err)
	return cfg
}

func errorPaths(t *testing.T, err error) []string {
	t.Helper()

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T", err)

	paths := make([]string, 0, len(verrs))
	for _, e := range verrs {
		paths = append(paths, e.Path)
	}
	return paths
}

func TestValidateConfig_Valid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateConfig(validConfig(t)))
}

func TestValidateConfig_Nil(t *testing.T) {
	t.Parallel()

	err := ValidateConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is nil")
}

func TestValidateConfig_InvalidDocument(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromReader(strings.NewReader(invalidConfigYAML))
	require.NoError(t, err)

	err = ValidateConfig(cfg)
	require.Error(t, err)

	paths := errorPaths(t, err)
	assert.ElementsMatch(t, []string{
		"apiVersion",
		"kind",
		"metadata.name",
		"spec.release.version",
		"spec.healthcheck.url",
	}, paths)
	assert.Contains(t, err.Error(), "5 validation errors")
}

func TestValidateConfig_Sections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*StatusConfig)
		wantPath string
	}{
		{
			name:     "missing url",
			mutate:   func(c *StatusConfig) { c.Spec.Healthcheck.URL = "" },
			wantPath: "spec.healthcheck.url",
		},
		{
			name:     "relative url",
			mutate:   func(c *StatusConfig) { c.Spec.Healthcheck.URL = "/healthcheck" },
			wantPath: "spec.healthcheck.url",
		},
		{
			name:     "negative timeout",
			mutate:   func(c *StatusConfig) { c.Spec.Healthcheck.Timeout = -1 },
			wantPath: "spec.healthcheck.timeout",
		},
		{
			name: "breaker threshold",
			mutate: func(c *StatusConfig) {
				c.Spec.Healthcheck.CircuitBreaker = &CircuitBreakerConfig{Enabled: true, Timeout: 1}
			},
			wantPath: "spec.healthcheck.circuitBreaker.threshold",
		},
		{
			name:     "negative listener timeout",
			mutate:   func(c *StatusConfig) { c.Spec.Listener.ReadTimeout = -1 },
			wantPath: "spec.listener",
		},
		{
			name: "unknown cache type",
			mutate: func(c *StatusConfig) {
				c.Spec.Cache = &CacheConfig{Enabled: true, Type: "memcached", TTL: 1}
			},
			wantPath: "spec.cache.type",
		},
		{
			name: "redis without url",
			mutate: func(c *StatusConfig) {
				c.Spec.Cache = &CacheConfig{Enabled: true, Type: CacheTypeRedis, TTL: 1}
			},
			wantPath: "spec.cache.redis.url",
		},
		{
			name: "cache ttl",
			mutate: func(c *StatusConfig) {
				c.Spec.Cache = &CacheConfig{Enabled: true, Type: CacheTypeMemory}
			},
			wantPath: "spec.cache.ttl",
		},
		{
			name:     "no api keys",
			mutate:   func(c *StatusConfig) { c.Spec.StatusAuth = &StatusAuthConfig{} },
			wantPath: "spec.statusAuth.apiKeys",
		},
		{
			name: "blank api key",
			mutate: func(c *StatusConfig) {
				c.Spec.StatusAuth = &StatusAuthConfig{APIKeys: []string{"ok", " "}}
			},
			wantPath: "spec.statusAuth.apiKeys[1]",
		},
		{
			name: "rate limit rps",
			mutate: func(c *StatusConfig) {
				c.Spec.RateLimit = &RateLimitConfig{Enabled: true, Burst: 1}
			},
			wantPath: "spec.rateLimit.requestsPerSecond",
		},
		{
			name: "rate limit burst",
			mutate: func(c *StatusConfig) {
				c.Spec.RateLimit = &RateLimitConfig{Enabled: true, RequestsPerSecond: 1}
			},
			wantPath: "spec.rateLimit.burst",
		},
		{
			name: "metrics path",
			mutate: func(c *StatusConfig) {
				c.Spec.Observability = &ObservabilityConfig{Metrics: &MetricsConfig{Enabled: true, Path: "metrics"}}
			},
			wantPath: "spec.observability.metrics.path",
		},
		{
			name: "metrics path shadows status",
			mutate: func(c *StatusConfig) {
				c.Spec.Observability = &ObservabilityConfig{Metrics: &MetricsConfig{Enabled: true, Path: "/_status"}}
			},
			wantPath: "spec.observability.metrics.path",
		},
		{
			name: "metrics path shadows readiness",
			mutate: func(c *StatusConfig) {
				c.Spec.Observability = &ObservabilityConfig{Metrics: &MetricsConfig{Enabled: true, Path: "/readyz"}}
			},
			wantPath: "spec.observability.metrics.path",
		},
		{
			name: "sampling rate",
			mutate: func(c *StatusConfig) {
				c.Spec.Observability = &ObservabilityConfig{Tracing: &TracingConfig{Enabled: true, SamplingRate: 2}}
			},
			wantPath: "spec.observability.tracing.samplingRate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig(t)
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Equal(t, []string{tt.wantPath}, errorPaths(t, err))
		})
	}
}

func TestValidateConfig_ReservedMetricsPaths(t *testing.T) {
	t.Parallel()

	for _, path := range []string{health.PathPing, health.PathStatus, health.PathHealthz, health.PathReadyz} {
		cfg := validConfig(t)
		cfg.Spec.Observability = &ObservabilityConfig{Metrics: &MetricsConfig{Enabled: true, Path: path}}

		err := ValidateConfig(cfg)
		require.Error(t, err, path)
		assert.Equal(t, []string{"spec.observability.metrics.path"}, errorPaths(t, err))
	}
}

func TestValidateConfig_DisabledSectionsSkipped(t *testing.T) {
	t.Parallel()

	cfg := validConfig(t)
	cfg.Spec.Cache = &CacheConfig{Enabled: false, Type: "bogus"}
	cfg.Spec.RateLimit = &RateLimitConfig{Enabled: false}
	cfg.Spec.Healthcheck.CircuitBreaker = &CircuitBreakerConfig{Enabled: false}

	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	assert.Equal(t, "kind: kind is required", ValidationErrors{{Path: "kind", Message: "kind is required"}}.Error())
	assert.Equal(t, "configuration is nil", (&ValidationError{Message: "configuration is nil"}).Error())
	assert.False(t, ValidationErrors{}.HasErrors())
}
