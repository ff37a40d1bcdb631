package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avastatus/internal/health"
	"github.com/vyrodovalexey/avastatus/internal/observability"
)

const (
	// DefaultTimeout bounds a single healthcheck callout.
	DefaultTimeout = 5 * time.Second

	// MaxBodyBytes caps how much of the backend answer is kept.
	MaxBodyBytes = 1 << 20

	// breakerName labels the healthcheck breaker in logs and metrics.
	breakerName = "healthcheck"
)

// Probe results used as metric labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

var tracer = otel.Tracer("avastatus/probe")

// errServerStatus marks a 5xx answer as a breaker failure.
var errServerStatus = errors.New("healthcheck returned server error")

// HTTPProber calls the backend healthcheck endpoint once per probe.
type HTTPProber struct {
	url     string
	client  *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  observability.Logger
	metrics *observability.Metrics

	breakerThreshold int
	breakerTimeout   time.Duration
	breakerState     BreakerStateFunc
}

// Option configures an HTTPProber.
type Option func(*HTTPProber)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *HTTPProber) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client. Redirects are never followed
// regardless of the client's own policy.
func WithHTTPClient(c *http.Client) Option {
	return func(p *HTTPProber) {
		if c != nil {
			p.client = c
		}
	}
}

// WithCircuitBreaker enables a breaker that opens after threshold
// consecutive failed callouts and stays open for timeout.
func WithCircuitBreaker(threshold int, timeout time.Duration) Option {
	return func(p *HTTPProber) {
		p.breakerThreshold = threshold
		p.breakerTimeout = timeout
	}
}

// WithBreakerStateCallback observes breaker state changes.
func WithBreakerStateCallback(fn BreakerStateFunc) Option {
	return func(p *HTTPProber) {
		p.breakerState = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *HTTPProber) {
		p.logger = logger
	}
}

// WithMetrics records probe results and breaker state.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *HTTPProber) {
		p.metrics = m
	}
}

// NewHTTPProber creates a prober for the given healthcheck URL.
func NewHTTPProber(url string, opts ...Option) *HTTPProber {
	p := &HTTPProber{
		url:     url,
		client:  &http.Client{},
		timeout: DefaultTimeout,
		logger:  observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	// The callout reports the first answer it gets. A redirect is an
	// answer, not something to chase.
	client := *p.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	p.client = &client

	if p.breakerThreshold > 0 {
		onState := p.breakerState
		if p.metrics != nil {
			metrics := p.metrics
			next := onState
			onState = func(name string, state int) {
				metrics.SetCircuitBreakerState(name, state)
				if next != nil {
					next(name, state)
				}
			}
		}
		p.breaker = newBreaker(breakerName, p.breakerThreshold, p.breakerTimeout, p.logger, onState)
	}

	return p
}

// URL returns the probed endpoint.
func (p *HTTPProber) URL() string {
	return p.url
}

// Probe performs one callout. fresh is ignored since every call is live.
func (p *HTTPProber) Probe(ctx context.Context, _ bool) health.ProbeOutcome {
	ctx, span := tracer.Start(ctx, "probe.healthcheck",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", p.url),
		),
	)
	defer span.End()

	start := time.Now()
	outcome, err := p.execute(ctx)
	duration := time.Since(start)

	result := resultOf(outcome)
	if p.metrics != nil {
		p.metrics.RecordProbe(result, duration)
	}

	logger := p.logger.WithContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("healthcheck callout failed",
			observability.String("url", p.url),
			observability.Duration("duration", duration),
			observability.Error(err),
		)
		return outcome
	}

	span.SetAttributes(attribute.Int("http.response.status_code", *outcome.ResponseCode))
	logger.Debug("healthcheck callout completed",
		observability.String("url", p.url),
		observability.Int("status", *outcome.ResponseCode),
		observability.String("result", result),
		observability.Duration("duration", duration),
	)

	return outcome
}

// execute runs the callout, through the breaker when one is configured.
// A non-nil error always comes with a CallFailed outcome.
func (p *HTTPProber) execute(ctx context.Context) (health.ProbeOutcome, error) {
	if p.breaker == nil {
		return p.call(ctx)
	}

	var outcome health.ProbeOutcome
	var callErr error
	_, err := p.breaker.Execute(func() (interface{}, error) {
		outcome, callErr = p.call(ctx)
		if callErr != nil {
			// An aborted caller says nothing about the backend.
			if ctx.Err() != nil {
				return nil, nil
			}
			return nil, callErr
		}
		if *outcome.ResponseCode >= http.StatusInternalServerError {
			return nil, errServerStatus
		}
		return nil, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return p.failed(), fmt.Errorf("circuit breaker rejected callout: %w", err)
	case callErr != nil:
		return outcome, callErr
	default:
		return outcome, nil
	}
}

// call issues the GET and reads at most MaxBodyBytes of the answer.
func (p *HTTPProber) call(ctx context.Context) (health.ProbeOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return p.failed(), fmt.Errorf("failed to build healthcheck request: %w", err)
	}
	observability.InjectTraceContext(ctx, req)

	if cid := observability.CorrelationIDFromContext(ctx); cid != "" {
		req.Header.Set(health.HeaderCorrelationID, cid)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return p.failed(), err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return p.failed(), fmt.Errorf("failed to read healthcheck response: %w", err)
	}

	code := resp.StatusCode
	body := string(data)
	return health.ProbeOutcome{
		ResponseCode: &code,
		ResponseBody: &body,
		RequestURL:   p.url,
	}, nil
}

func (p *HTTPProber) failed() health.ProbeOutcome {
	return health.ProbeOutcome{
		RequestURL: p.url,
		CallFailed: true,
	}
}

// resultOf classifies an outcome for metrics.
func resultOf(o health.ProbeOutcome) string {
	switch health.CheckStatus(o) {
	case health.StatusPass:
		return ResultSuccess
	default:
		if o.ResponseCode == nil {
			return ResultError
		}
		return ResultFailure
	}
}
