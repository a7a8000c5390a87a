// internal/tenant/cache.go
//
// Optional short-lived verdict cache.
//
// Context
// -------
// By default every gated request re-checks the tenant's status, trading one
// round trip per request for freshness.  Operators who prefer throughput
// set `status.cache_ttl` > 0, and the gate then wraps its StatusGate in a
// StatusCache:
//
//   • Active and Suspended verdicts are kept for the TTL.
//   • Unknown is never stored, so a transient failure is retried on the
//     next request instead of pinning fail-open for a whole TTL.
//   • A singleflight barrier collapses concurrent misses for one tenant
//     into a single upstream fetch.
//
// Storage is a ristretto cache; it handles TTL expiry and size-bounded
// eviction, so there is no evictor goroutine here.
package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/kalako-gate/internal/metrics"
)

// Static defaults used when callers pass zero.
const (
	DefaultCacheEntries = 10000
)

// StatusCache is a Checker that memoises another Checker.
type StatusCache struct {
	next Checker
	ttl  time.Duration
	sfg  singleflight.Group
	c    *ristretto.Cache[string, Verdict]
}

// NewStatusCache wraps next.  ttl must be positive; maxEntries <= 0 uses
// DefaultCacheEntries.
func NewStatusCache(next Checker, ttl time.Duration, maxEntries int64) (*StatusCache, error) {
	if ttl <= 0 {
		return nil, errors.New("status cache: ttl must be positive")
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, Verdict]{
		NumCounters: maxEntries * 10, // ~10x expected items
		MaxCost:     maxEntries,      // one unit per tenant
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &StatusCache{next: next, ttl: ttl, c: c}, nil
}

// Check returns a cached verdict or asks next, once per tenant at a time.
func (s *StatusCache) Check(ctx context.Context, tenantID string) Verdict {
	if v, ok := s.c.Get(tenantID); ok {
		metrics.TenantStatusCacheTotal.WithLabelValues("hit").Inc()
		return v
	}
	metrics.TenantStatusCacheTotal.WithLabelValues("miss").Inc()

	res, _, _ := s.sfg.Do(tenantID, func() (any, error) {
		// Double-check after singleflight barrier.
		if v, ok := s.c.Get(tenantID); ok {
			return v, nil
		}
		// Waiters share this fetch, so one caller going away must not
		// turn everyone's answer into Unknown.  next bounds its own time.
		v := s.next.Check(context.WithoutCancel(ctx), tenantID)
		if v != VerdictUnknown {
			s.c.SetWithTTL(tenantID, v, 1, s.ttl)
			s.c.Wait()
		}
		return v, nil
	})
	return res.(Verdict)
}

// Invalidate drops one tenant, e.g. after a payment webhook.
func (s *StatusCache) Invalidate(tenantID string) { s.c.Del(tenantID) }

// Close releases the cache's background goroutines.
func (s *StatusCache) Close() { s.c.Close() }
