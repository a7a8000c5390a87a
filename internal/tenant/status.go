// internal/tenant/status.go
//
// Tenant subscription status and the fail-open status gate.
//
// Context
// -------
// For authenticated requests to protected tenant pages the gate asks a
// Source for the tenant's status once per request and folds the answer
// into a Verdict:
//
//   • VerdictSuspended – the tenant must be sent to the suspension notice.
//   • VerdictActive    – the request proceeds.
//   • VerdictUnknown   – the source failed (network, timeout, non-2xx,
//                        bad body).  Treated as not suspended.
//
// Unknown is a first-class value rather than a swallowed error so the
// fail-open branch is visible at every call site and in metrics.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/kalako-gate/internal/metrics"
)

// Sentinel errors returned by sources.  StatusGate folds all of them into
// VerdictUnknown.
var (
	ErrStatusHTTP    = errors.New("tenant status: non-success response")
	ErrStatusBody    = errors.New("tenant status: unparsable body")
	ErrUnknownTenant = errors.New("tenant status: tenant not found")
)

// Status is one answer from a Source.  Never cached by the gate itself.
type Status struct {
	Status      string     // active, trial, suspended, or anything else
	TrialEndsAt *time.Time // nil when absent or unparsable
}

// Suspended applies the suspension rules at instant now:
//
//  1. status "suspended"            → true
//  2. status "active" or "trial"    → false, whatever the trial end says
//  3. trial end set and before now  → true
//  4. otherwise                     → false
func (s Status) Suspended(now time.Time) bool {
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case "suspended":
		return true
	case "active", "trial":
		return false
	}
	return s.TrialEndsAt != nil && s.TrialEndsAt.Before(now)
}

// Source fetches the current Status of one tenant.
type Source interface {
	Fetch(ctx context.Context, tenantID string) (Status, error)
}

// Verdict is the folded outcome of one status check.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictActive
	VerdictSuspended
)

func (v Verdict) String() string {
	switch v {
	case VerdictActive:
		return "active"
	case VerdictSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Suspended reports whether v blocks the request.  Unknown does not.
func (v Verdict) Suspended() bool { return v == VerdictSuspended }

// Checker answers "is this tenant suspended right now".  StatusGate and
// StatusCache both satisfy it.
type Checker interface {
	Check(ctx context.Context, tenantID string) Verdict
}

// StatusGate wraps a Source with a timeout, metrics, and the fail-open
// fold.  It keeps no state between calls.
type StatusGate struct {
	src     Source
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

// NewStatusGate returns a gate over src.  timeout <= 0 leaves the caller's
// context deadline as the only bound.
func NewStatusGate(src Source, timeout time.Duration, log *zap.Logger) *StatusGate {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusGate{src: src, timeout: timeout, log: log, now: time.Now}
}

// Check performs exactly one fetch.  It never returns an error and never
// panics out to the caller.
func (g *StatusGate) Check(ctx context.Context, tenantID string) (v Verdict) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("tenant status source panicked, failing open",
				zap.String("tenant", tenantID), zap.Any("panic", r))
			v = VerdictUnknown
		}
		metrics.TenantStatusCheckSeconds.Observe(time.Since(start).Seconds())
		metrics.TenantStatusChecksTotal.WithLabelValues(v.String()).Inc()
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	st, err := g.src.Fetch(ctx, tenantID)
	if err != nil {
		g.log.Warn("tenant status check failed, failing open",
			zap.String("tenant", tenantID), zap.Error(err))
		return VerdictUnknown
	}
	if st.Suspended(g.now()) {
		return VerdictSuspended
	}
	return VerdictActive
}

// trialLayouts are tried in order; the first two cover the backend's
// ISO-8601 output, the rest cover hand-edited rows.
var trialLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTrialEnd parses a trial_ends_at value.  Layouts without a zone are
// read as UTC.
func ParseTrialEnd(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range trialLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// statusError wraps a sentinel with detail for logs.
func statusError(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
