// internal/tenant/cache_test.go
//
// Unit-tests for StatusCache: hits, Unknown bypass, shared fetches,
// and cancellation of one waiter.
//
// Run: go test ./internal/tenant -v

package tenant

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingChecker struct {
	calls   atomic.Int32
	verdict atomic.Int32
	delay   time.Duration
}

func (c *countingChecker) Check(context.Context, string) Verdict {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return Verdict(c.verdict.Load())
}

func TestStatusCache_HitAfterMiss(t *testing.T) {
	next := &countingChecker{}
	next.verdict.Store(int32(VerdictSuspended))

	c, err := NewStatusCache(next, time.Minute, 100)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		if v := c.Check(context.Background(), "toko-a"); v != VerdictSuspended {
			t.Fatalf("verdict = %v", v)
		}
	}
	if got := next.calls.Load(); got != 1 {
		t.Fatalf("next called %d times, want 1", got)
	}
}

func TestStatusCache_UnknownNotStored(t *testing.T) {
	next := &countingChecker{}
	next.verdict.Store(int32(VerdictUnknown))

	c, err := NewStatusCache(next, time.Minute, 100)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Check(context.Background(), "toko-a")
	next.verdict.Store(int32(VerdictActive))
	if v := c.Check(context.Background(), "toko-a"); v != VerdictActive {
		t.Fatalf("verdict = %v, want active after retry", v)
	}
	if got := next.calls.Load(); got != 2 {
		t.Fatalf("next called %d times, want 2", got)
	}
}

func TestStatusCache_Invalidate(t *testing.T) {
	next := &countingChecker{}
	next.verdict.Store(int32(VerdictSuspended))

	c, err := NewStatusCache(next, time.Minute, 100)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Check(context.Background(), "toko-a")
	c.Invalidate("toko-a")
	next.verdict.Store(int32(VerdictActive))
	if v := c.Check(context.Background(), "toko-a"); v != VerdictActive {
		t.Fatalf("verdict = %v, want active after invalidate", v)
	}
}

func TestStatusCache_ConcurrentMissesShareFetch(t *testing.T) {
	next := &countingChecker{delay: 50 * time.Millisecond}
	next.verdict.Store(int32(VerdictActive))

	c, err := NewStatusCache(next, time.Minute, 100)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Check(context.Background(), "toko-a")
		}()
	}
	wg.Wait()
	if got := next.calls.Load(); got > 2 {
		t.Fatalf("next called %d times for concurrent misses", got)
	}
}

// blockingChecker holds every call until release is closed and answers
// Unknown if the context it was given ends first.
type blockingChecker struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingChecker) Check(ctx context.Context, _ string) Verdict {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-ctx.Done():
		return VerdictUnknown
	case <-b.release:
		return VerdictActive
	}
}

func TestStatusCache_CancelledCallerDoesNotSpoilSharedFetch(t *testing.T) {
	next := &blockingChecker{entered: make(chan struct{}), release: make(chan struct{})}
	c, err := NewStatusCache(next, time.Minute, 100)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan Verdict, 1)
	go func() { first <- c.Check(ctx, "toko-a") }()
	<-next.entered

	second := make(chan Verdict, 1)
	go func() { second <- c.Check(context.Background(), "toko-a") }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(next.release)

	if v := <-second; v != VerdictActive {
		t.Fatalf("waiting caller got %v, want active", v)
	}
	if v := <-first; v != VerdictActive {
		t.Fatalf("cancelled caller got %v, want active", v)
	}
	if v := c.Check(context.Background(), "toko-a"); v != VerdictActive {
		t.Fatalf("cached verdict = %v, want active", v)
	}
}

func TestNewStatusCache_RejectsZeroTTL(t *testing.T) {
	if _, err := NewStatusCache(&countingChecker{}, 0, 10); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
