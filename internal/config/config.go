package config

import "time"

// Accepted root identifiers.
const (
	APIVersionPrefix = "avastatus.io/"
	KindStatusProxy  = "StatusProxy"
)

// Cache types.
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Defaults applied by the loader to unset fields.
const (
	DefaultListenAddress      = ":8080"
	DefaultReadTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 15 * time.Second
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultHealthcheckTimeout = 5 * time.Second
	DefaultCacheTTL           = 5 * time.Second
	DefaultStatusAuthHeader   = "apikey"
	DefaultMetricsPath        = "/metrics"
	DefaultServiceName        = "avastatus"
	DefaultBreakerThreshold   = 5
	DefaultBreakerTimeout     = 30 * time.Second
)

// StatusConfig is the root configuration document.
type StatusConfig struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion"`
	Kind       string     `yaml:"kind" json:"kind"`
	Metadata   Metadata   `yaml:"metadata" json:"metadata"`
	Spec       StatusSpec `yaml:"spec" json:"spec"`
}

// Metadata contains identifying information.
type Metadata struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// StatusSpec is the body of the configuration.
type StatusSpec struct {
	Listener      ListenerConfig       `yaml:"listener" json:"listener"`
	Release       ReleaseConfig        `yaml:"release" json:"release"`
	Revision      string               `yaml:"revision" json:"revision"`
	Healthcheck   HealthcheckConfig    `yaml:"healthcheck" json:"healthcheck"`
	Cache         *CacheConfig         `yaml:"cache,omitempty" json:"cache,omitempty"`
	StatusAuth    *StatusAuthConfig    `yaml:"statusAuth,omitempty" json:"statusAuth,omitempty"`
	RateLimit     *RateLimitConfig     `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
	Observability *ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// ListenerConfig configures the HTTP listener.
type ListenerConfig struct {
	Address         string   `yaml:"address" json:"address"`
	ReadTimeout     Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout    Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`
}

// ReleaseConfig identifies the deployed release stamped on every report.
type ReleaseConfig struct {
	Version   string `yaml:"version" json:"version"`
	ReleaseID string `yaml:"releaseId" json:"releaseId"`
	CommitID  string `yaml:"commitId" json:"commitId"`
}

// HealthcheckConfig configures the backend healthcheck callout.
type HealthcheckConfig struct {
	URL            string                `yaml:"url" json:"url"`
	Timeout        Duration              `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
}

// CircuitBreakerConfig configures the breaker around the callout.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// CacheConfig configures caching of probe outcomes.
type CacheConfig struct {
	Enabled bool              `yaml:"enabled" json:"enabled"`
	Type    string            `yaml:"type,omitempty" json:"type,omitempty"`
	TTL     Duration          `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	Redis   *RedisCacheConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisCacheConfig configures the Redis cache backend.
type RedisCacheConfig struct {
	URL       string `yaml:"url" json:"url"`
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`
}

// StatusAuthConfig protects the status endpoint with API keys.
type StatusAuthConfig struct {
	Header  string   `yaml:"header,omitempty" json:"header,omitempty"`
	APIKeys []string `yaml:"apiKeys" json:"apiKeys"`
}

// RateLimitConfig configures the token bucket in front of the status endpoint.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// ObservabilityConfig configures metrics and tracing.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// MetricsEnabled reports whether the metrics endpoint is served.
func (c *StatusConfig) MetricsEnabled() bool {
	obs := c.Spec.Observability
	return obs != nil && obs.Metrics != nil && obs.Metrics.Enabled
}

// CacheEnabled reports whether probe outcomes are cached.
func (c *StatusConfig) CacheEnabled() bool {
	return c.Spec.Cache != nil && c.Spec.Cache.Enabled
}
