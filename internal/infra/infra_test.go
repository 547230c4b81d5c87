package infra

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// ── Cache ──

func TestCacheGetSet(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)}
	c := NewCache(time.Hour, WithClock(clk.Now))

	c.Set("rates:USD", 42)
	v, ok := c.Get("rates:USD")
	if !ok || v.(int) != 42 {
		t.Fatalf("Get: got %v, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("missing key should not be found")
	}
}

func TestCacheExpiresAtTTL(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)}
	c := NewCache(time.Hour, WithClock(clk.Now))
	c.Set("k", "v")

	clk.Advance(59 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be valid before TTL")
	}

	clk.Advance(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry must not be served once TTL has elapsed")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted on read, len=%d", c.Len())
	}
}

func TestCacheEntryTimestamps(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: start}
	c := NewCache(time.Minute, WithClock(clk.Now))
	c.SetWithTTL("k", 1, 10*time.Minute)

	e, ok := c.Entry("k")
	if !ok {
		t.Fatal("entry missing")
	}
	if !e.StoredAt.Equal(start) || !e.ExpiresAt.Equal(start.Add(10*time.Minute)) {
		t.Fatalf("unexpected timestamps: %+v", e)
	}
}

func TestCacheInvalidateFlushCleanup(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	c := NewCache(time.Minute, WithClock(clk.Now))
	c.Set("a", 1)
	c.Set("b", 2)
	c.SetWithTTL("c", 3, time.Hour)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be invalidated")
	}

	clk.Advance(2 * time.Minute)
	c.Cleanup()
	if c.Len() != 1 {
		t.Fatalf("Cleanup should leave only c, len=%d", c.Len())
	}

	c.Flush()
	if c.Len() != 0 {
		t.Fatal("Flush should empty the cache")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set("k", 1)
		}()
		go func() {
			defer wg.Done()
			c.Get("k")
		}()
	}
	wg.Wait()
}

// ── RateLimiter ──

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	if !rl.TryAcquire() || !rl.TryAcquire() {
		t.Fatal("first two acquisitions should succeed")
	}
	if rl.TryAcquire() {
		t.Fatal("third acquisition should be throttled")
	}
}

func TestRateLimiterWaitCancelled(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.TryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("Wait should return context error when no token arrives")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	rl.TryAcquire()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait after refill: %v", err)
	}
}
