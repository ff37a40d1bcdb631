package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// escapedDollar stands in for "$$" while variables are substituted.
const escapedDollar = "\x00ESCAPED_DOLLAR\x00"

// LoadConfig loads, expands and defaults configuration from a file.
func LoadConfig(path string) (*StatusConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return parseConfig(data)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*StatusConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(data)
}

// parseConfig parses YAML data into a StatusConfig.
func parseConfig(data []byte) (*StatusConfig, error) {
	content := substituteEnvVars(string(data))

	var config StatusConfig
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} with environment
// values. "$$" produces a literal dollar sign.
func substituteEnvVars(content string) string {
	content = strings.ReplaceAll(content, "$$", escapedDollar)

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		if value, exists := os.LookupEnv(submatches[1]); exists {
			return value
		}
		if len(submatches) >= 3 {
			return submatches[2]
		}
		return ""
	})

	return strings.ReplaceAll(result, escapedDollar, "$")
}

// applyDefaults fills unset optional fields.
func applyDefaults(config *StatusConfig) {
	spec := &config.Spec

	if spec.Listener.Address == "" {
		spec.Listener.Address = DefaultListenAddress
	}
	if spec.Listener.ReadTimeout == 0 {
		spec.Listener.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if spec.Listener.WriteTimeout == 0 {
		spec.Listener.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if spec.Listener.ShutdownTimeout == 0 {
		spec.Listener.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}

	if spec.Healthcheck.Timeout == 0 {
		spec.Healthcheck.Timeout = Duration(DefaultHealthcheckTimeout)
	}
	if cb := spec.Healthcheck.CircuitBreaker; cb != nil {
		if cb.Threshold == 0 {
			cb.Threshold = DefaultBreakerThreshold
		}
		if cb.Timeout == 0 {
			cb.Timeout = Duration(DefaultBreakerTimeout)
		}
	}

	if c := spec.Cache; c != nil {
		if c.Type == "" {
			c.Type = CacheTypeMemory
		}
		if c.TTL == 0 {
			c.TTL = Duration(DefaultCacheTTL)
		}
	}

	if a := spec.StatusAuth; a != nil && a.Header == "" {
		a.Header = DefaultStatusAuthHeader
	}

	if obs := spec.Observability; obs != nil {
		if obs.Metrics != nil && obs.Metrics.Path == "" {
			obs.Metrics.Path = DefaultMetricsPath
		}
		if obs.Tracing != nil && obs.Tracing.ServiceName == "" {
			obs.Tracing.ServiceName = DefaultServiceName
		}
	}
}
