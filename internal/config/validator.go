package config

import (
	"fmt"
	"net/url"
	"strings"
)

// reservedPaths are routed by the health handler.
var reservedPaths = map[string]bool{
	"/_ping":   true,
	"/_status": true,
	"/healthz": true,
	"/readyz":  true,
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e[i].Error())
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates status configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// ValidateConfig validates a status configuration.
func ValidateConfig(config *StatusConfig) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns every violation found.
func (v *Validator) Validate(config *StatusConfig) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRoot(config)
	v.validateSpec(&config.Spec)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRoot(config *StatusConfig) {
	switch {
	case config.APIVersion == "":
		v.addError("apiVersion", "apiVersion is required")
	case !strings.HasPrefix(config.APIVersion, APIVersionPrefix):
		v.addError("apiVersion", "apiVersion must start with '"+APIVersionPrefix+"'")
	}

	switch {
	case config.Kind == "":
		v.addError("kind", "kind is required")
	case config.Kind != KindStatusProxy:
		v.addError("kind", "kind must be '"+KindStatusProxy+"'")
	}

	if config.Metadata.Name == "" {
		v.addError("metadata.name", "name is required")
	}
}

func (v *Validator) validateSpec(spec *StatusSpec) {
	if spec.Release.Version == "" {
		v.addError("spec.release.version", "version is required")
	}

	v.validateHealthcheck(&spec.Healthcheck)

	l := spec.Listener
	if l.ReadTimeout < 0 || l.WriteTimeout < 0 || l.ShutdownTimeout < 0 {
		v.addError("spec.listener", "timeouts must not be negative")
	}

	if spec.Cache != nil {
		v.validateCache(spec.Cache)
	}
	if spec.StatusAuth != nil {
		v.validateStatusAuth(spec.StatusAuth)
	}
	if spec.RateLimit != nil {
		v.validateRateLimit(spec.RateLimit)
	}
	if spec.Observability != nil {
		v.validateObservability(spec.Observability)
	}
}

func (v *Validator) validateHealthcheck(hc *HealthcheckConfig) {
	const path = "spec.healthcheck"

	if hc.URL == "" {
		v.addError(path+".url", "url is required")
	} else if u, err := url.Parse(hc.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.addError(path+".url", "url must be an absolute http(s) URL")
	}

	if hc.Timeout < 0 {
		v.addError(path+".timeout", "timeout must not be negative")
	}

	if cb := hc.CircuitBreaker; cb != nil && cb.Enabled {
		if cb.Threshold < 1 {
			v.addError(path+".circuitBreaker.threshold", "threshold must be at least 1")
		}
		if cb.Timeout <= 0 {
			v.addError(path+".circuitBreaker.timeout", "timeout must be positive")
		}
	}
}

func (v *Validator) validateCache(c *CacheConfig) {
	const path = "spec.cache"

	if !c.Enabled {
		return
	}

	switch c.Type {
	case CacheTypeMemory:
	case CacheTypeRedis:
		if c.Redis == nil || c.Redis.URL == "" {
			v.addError(path+".redis.url", "redis url is required for redis cache")
		}
	default:
		v.addError(path+".type", "type must be 'memory' or 'redis'")
	}

	if c.TTL <= 0 {
		v.addError(path+".ttl", "ttl must be positive")
	}
}

func (v *Validator) validateStatusAuth(a *StatusAuthConfig) {
	const path = "spec.statusAuth"

	if len(a.APIKeys) == 0 {
		v.addError(path+".apiKeys", "at least one api key is required")
	}
	for i, key := range a.APIKeys {
		if strings.TrimSpace(key) == "" {
			v.addError(fmt.Sprintf("%s.apiKeys[%d]", path, i), "api key must not be empty")
		}
	}
}

func (v *Validator) validateRateLimit(rl *RateLimitConfig) {
	const path = "spec.rateLimit"

	if !rl.Enabled {
		return
	}
	if rl.RequestsPerSecond <= 0 {
		v.addError(path+".requestsPerSecond", "requestsPerSecond must be positive")
	}
	if rl.Burst < 1 {
		v.addError(path+".burst", "burst must be at least 1")
	}
}

func (v *Validator) validateObservability(obs *ObservabilityConfig) {
	const path = "spec.observability"

	if m := obs.Metrics; m != nil && m.Enabled {
		switch {
		case !strings.HasPrefix(m.Path, "/"):
			v.addError(path+".metrics.path", "path must start with '/'")
		case reservedPaths[m.Path]:
			v.addError(path+".metrics.path", "path '"+m.Path+"' is already served by the health endpoints")
		}
	}

	if tr := obs.Tracing; tr != nil && tr.Enabled {
		if tr.SamplingRate < 0 || tr.SamplingRate > 1 {
			v.addError(path+".tracing.samplingRate", "samplingRate must be between 0 and 1")
		}
	}
}
