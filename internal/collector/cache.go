package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"TradeScout/internal/model"
)

// CacheKey identifies one fetch request.
type CacheKey struct {
	Symbol   string
	Period   string
	Interval string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s_%s_%s", k.Symbol, k.Period, k.Interval)
}

// Cache stores fetched series for a limited time.
type Cache interface {
	Get(ctx context.Context, key CacheKey) (*model.PriceSeries, bool)
	Set(ctx context.Context, key CacheKey, series *model.PriceSeries)
}

type cacheEntry struct {
	fetchedAt time.Time
	series    *model.PriceSeries
}

func (e cacheEntry) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.fetchedAt) >= ttl
}

// MemoryCache is an in-process cache. It starts empty and lives as long as
// the process.
type MemoryCache struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.RWMutex
	entries map[CacheKey]cacheEntry
}

// NewMemoryCache creates a cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{TTL: ttl, Now: time.Now, entries: make(map[CacheKey]cacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key CacheKey) (*model.PriceSeries, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := c.Now()
	if !e.expired(now, c.TTL) {
		return e.series, true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// a Set may have landed between the two locks
	if cur, ok := c.entries[key]; ok && !cur.expired(now, c.TTL) {
		return cur.series, true
	}
	delete(c.entries, key)
	return nil, false
}

func (c *MemoryCache) Set(_ context.Context, key CacheKey, series *model.PriceSeries) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{fetchedAt: c.Now(), series: series}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisConfig configures RedisCache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"tradescout:bars:"`
}

// RedisCache shares fetched series between processes. Redis errors are
// treated as misses.
type RedisCache struct {
	cli    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects lazily to the configured server.
func NewRedisCache(cfg RedisConfig, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})
	return &RedisCache{cli: rdb, ttl: ttl, prefix: cfg.Prefix}
}

func (r *RedisCache) key(k CacheKey) string { return r.prefix + k.String() }

func (r *RedisCache) Get(ctx context.Context, key CacheKey) (*model.PriceSeries, bool) {
	b, err := r.cli.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var s model.PriceSeries
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (r *RedisCache) Set(ctx context.Context, key CacheKey, series *model.PriceSeries) {
	b, err := json.Marshal(series)
	if err != nil {
		return
	}
	_ = r.cli.Set(ctx, r.key(key), b, r.ttl).Err()
}

// Ping checks connectivity.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.cli.Ping(ctx).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisCache) Close() error { return r.cli.Close() }

// Layered reads through caches in order and writes to all of them.
type Layered []Cache

func (l Layered) Get(ctx context.Context, key CacheKey) (*model.PriceSeries, bool) {
	for i, c := range l {
		if s, ok := c.Get(ctx, key); ok {
			for j := 0; j < i; j++ {
				l[j].Set(ctx, key, s)
			}
			return s, true
		}
	}
	return nil, false
}

func (l Layered) Set(ctx context.Context, key CacheKey, series *model.PriceSeries) {
	for _, c := range l {
		c.Set(ctx, key, series)
	}
}
