// Package probe performs the backend healthcheck callout that feeds the
// status report.
//
// An HTTPProber issues a single GET to the configured healthcheck URL and
// captures what happened as a health.ProbeOutcome. A failed call is an
// outcome, not an error: the report builder decides what it means.
//
// A CachingProber wraps another prober and serves recent outcomes from a
// cache.Cache, so that frequent status polls do not each reach the backend.
//
//	p := probe.NewHTTPProber(url,
//	    probe.WithTimeout(5*time.Second),
//	    probe.WithCircuitBreaker(5, 30*time.Second),
//	    probe.WithMetrics(metrics),
//	)
//	cached := probe.NewCachingProber(p, c, 5*time.Second)
//	outcome := cached.Probe(ctx, false)
package probe
