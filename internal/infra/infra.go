// Package infra provides shared infrastructure components: a TTL cache
// with an injectable clock, and a token-bucket rate limiter used by the
// outbound API clients.
package infra

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fixed or stepped clock.
type Clock func() time.Time

// --- In-memory TTL cache ---

// CacheEntry holds a cached value with expiration.
type CacheEntry struct {
	Value     any
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL. Reads take the read
// lock; writes and evictions take the write lock.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
	now     Clock
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now as the cache's time source.
func WithClock(clock Clock) CacheOption {
	return func(c *Cache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewCache creates a cache with the given default TTL.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the default time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Now returns the cache's notion of the current time.
func (c *Cache) Now() time.Time { return c.now() }

// Get retrieves a value. Expired entries are reported as missing and
// evicted.
func (c *Cache) Get(key string) (any, bool) {
	entry, ok := c.Entry(key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

// Entry is Get but also returns the storage timestamps.
func (c *Cache) Entry(key string) (CacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return CacheEntry{}, false
	}
	if !c.now().Before(entry.ExpiresAt) {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return CacheEntry{}, false
	}
	return entry, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	now := c.now()
	c.mu.Lock()
	c.entries[key] = CacheEntry{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	c.mu.Unlock()
}

// Invalidate removes a key from the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush removes all entries from the cache.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries. Can be called periodically.
func (c *Cache) Cleanup() {
	now := c.now()
	c.mu.Lock()
	for k, v := range c.entries {
		if !now.Before(v.ExpiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	poll       time.Duration
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if maxTokens <= 0 {
		maxTokens = 1
	}
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
		poll:       50 * time.Millisecond,
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.TryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.poll):
		}
	}
}

// TryAcquire takes a token without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	if rl.refillRate <= 0 {
		rl.tokens = rl.maxTokens
		return
	}
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}
