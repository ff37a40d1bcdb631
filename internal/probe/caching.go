package probe

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vyrodovalexey/avastatus/internal/cache"
	"github.com/vyrodovalexey/avastatus/internal/health"
	"github.com/vyrodovalexey/avastatus/internal/observability"
)

// outcomeKeyPrefix namespaces cached outcomes by probed URL.
const outcomeKeyPrefix = "outcome:"

// CachingProber serves recent outcomes from a cache. Cache failures are
// logged and fall through to a live probe.
type CachingProber struct {
	next   health.Prober
	cache  cache.Cache
	key    string
	ttl    time.Duration
	logger observability.Logger
}

// CachingOption configures a CachingProber.
type CachingOption func(*CachingProber)

// WithCacheLogger sets the logger.
func WithCacheLogger(logger observability.Logger) CachingOption {
	return func(p *CachingProber) {
		p.logger = logger
	}
}

// WithCacheKey overrides the cache key.
func WithCacheKey(key string) CachingOption {
	return func(p *CachingProber) {
		p.key = key
	}
}

// NewCachingProber wraps next. The key defaults to the prober URL when
// next exposes one.
func NewCachingProber(next health.Prober, c cache.Cache, ttl time.Duration, opts ...CachingOption) *CachingProber {
	p := &CachingProber{
		next:   next,
		cache:  c,
		key:    outcomeKeyPrefix + "default",
		ttl:    ttl,
		logger: observability.NopLogger(),
	}

	if u, ok := next.(interface{ URL() string }); ok {
		p.key = outcomeKeyPrefix + u.URL()
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Probe returns a cached outcome unless fresh is set or nothing usable
// is cached. Live outcomes are written back to the cache, except when
// the caller gave up mid-probe. A fresh refresh whose callout failed
// evicts the entry instead.
func (p *CachingProber) Probe(ctx context.Context, fresh bool) health.ProbeOutcome {
	if !fresh {
		if outcome, ok := p.lookup(ctx); ok {
			return outcome
		}
	}

	outcome := p.next.Probe(ctx, fresh)

	switch {
	case ctx.Err() != nil:
		p.logger.Debug("caller went away during probe, outcome not cached",
			observability.String("key", p.key),
			observability.Error(ctx.Err()),
		)
	case fresh && outcome.CallFailed:
		p.evict(ctx)
	default:
		p.store(ctx, outcome)
	}

	return outcome
}

func (p *CachingProber) lookup(ctx context.Context) (health.ProbeOutcome, bool) {
	data, err := p.cache.Get(ctx, p.key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrCacheDisabled) {
			p.logger.Warn("outcome cache read failed, probing live",
				observability.String("key", p.key),
				observability.Error(err),
			)
		}
		return health.ProbeOutcome{}, false
	}

	var outcome health.ProbeOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		p.logger.Warn("discarding undecodable cached outcome",
			observability.String("key", p.key),
			observability.Error(err),
		)
		p.evict(ctx)
		return health.ProbeOutcome{}, false
	}

	return outcome, true
}

func (p *CachingProber) store(ctx context.Context, outcome health.ProbeOutcome) {
	data, err := json.Marshal(outcome)
	if err != nil {
		p.logger.Warn("failed to encode outcome for cache", observability.Error(err))
		return
	}

	err = p.cache.Set(ctx, p.key, data, p.ttl)
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		p.logger.Warn("outcome cache write failed",
			observability.String("key", p.key),
			observability.Error(err),
		)
	}
}

func (p *CachingProber) evict(ctx context.Context) {
	err := p.cache.Delete(ctx, p.key)
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		p.logger.Warn("outcome cache delete failed",
			observability.String("key", p.key),
			observability.Error(err),
		)
	}
}
