package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/pkg/models"
)

// RateCache stores exchange-rate tables keyed by base currency.
// Implementations must be safe for concurrent use.
type RateCache interface {
	Get(ctx context.Context, base string) (*models.ExchangeRateTable, bool)
	Put(ctx context.Context, t *models.ExchangeRateTable)
	Delete(ctx context.Context, base string)
}

func cacheKey(base string) string {
	return "flightdesk:rates:" + strings.ToUpper(base)
}

// --- In-memory ---

// MemoryRateCache keeps tables in process memory.
type MemoryRateCache struct {
	cache *infra.Cache
}

// NewMemoryRateCache creates an in-memory rate cache.
func NewMemoryRateCache(ttl time.Duration, opts ...infra.CacheOption) *MemoryRateCache {
	return &MemoryRateCache{cache: infra.NewCache(ttl, opts...)}
}

func (m *MemoryRateCache) Get(_ context.Context, base string) (*models.ExchangeRateTable, bool) {
	v, ok := m.cache.Get(cacheKey(base))
	if !ok {
		return nil, false
	}
	t, ok := v.(*models.ExchangeRateTable)
	return t, ok
}

func (m *MemoryRateCache) Put(_ context.Context, t *models.ExchangeRateTable) {
	ttl := t.TTL
	if ttl <= 0 {
		ttl = m.cache.TTL()
	}
	m.cache.SetWithTTL(cacheKey(t.Base), t, ttl)
}

func (m *MemoryRateCache) Delete(_ context.Context, base string) {
	m.cache.Invalidate(cacheKey(base))
}

// --- Redis ---

// RedisRateCache shares tables between processes through Redis. Entries
// expire server-side at the table's TTL. Redis errors are logged and
// treated as cache misses.
type RedisRateCache struct {
	client *redis.Client
}

// NewRedisRateCache wraps an existing client.
func NewRedisRateCache(client *redis.Client) *RedisRateCache {
	return &RedisRateCache{client: client}
}

// DialRedis parses a redis:// URL, connects and pings.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func (r *RedisRateCache) Get(ctx context.Context, base string) (*models.ExchangeRateTable, bool) {
	raw, err := r.client.Get(ctx, cacheKey(base)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("currency: redis get %s: %v", base, err)
		}
		return nil, false
	}
	var t models.ExchangeRateTable
	if err := json.Unmarshal(raw, &t); err != nil {
		log.Printf("currency: redis decode %s: %v", base, err)
		return nil, false
	}
	return &t, true
}

func (r *RedisRateCache) Put(ctx context.Context, t *models.ExchangeRateTable) {
	raw, err := json.Marshal(t)
	if err != nil {
		log.Printf("currency: redis encode %s: %v", t.Base, err)
		return
	}
	if err := r.client.Set(ctx, cacheKey(t.Base), raw, t.TTL).Err(); err != nil {
		log.Printf("currency: redis set %s: %v", t.Base, err)
	}
}

func (r *RedisRateCache) Delete(ctx context.Context, base string) {
	if err := r.client.Del(ctx, cacheKey(base)).Err(); err != nil {
		log.Printf("currency: redis del %s: %v", base, err)
	}
}
