// Package cache provides a freshness-aware in-memory cache keyed by string,
// shared by all transit adapters. Every cached read carries an explicit TTL so
// each data class (static stations, incidents, realtime feeds) declares its
// own freshness window at the call site.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures a Cache.
type Config struct {
	// CleanupInterval is how often expired entries are evicted
	// (default: 10 minutes).
	CleanupInterval time.Duration

	// Now overrides the clock, for tests (default: time.Now).
	Now func() time.Time

	// Logger for cache hit/miss diagnostics.
	Logger zerolog.Logger
}

// Cache is a TTL cache over values of type T. An expired entry is treated as
// absent: it is never served, for any reason. Loads run outside the cache
// lock, so concurrent refreshes of the same stale key may duplicate upstream
// work; that is accepted so that loads of distinct keys never serialize.
type Cache[T any] struct {
	cleanupInterval time.Duration
	now             func() time.Time
	logger          zerolog.Logger

	mu          sync.RWMutex
	entries     map[string]*entry[T]
	lastCleanup time.Time
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// New creates a Cache with defaults applied for zero-value config fields.
func New[T any](cfg Config) *Cache[T] {
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Cache[T]{
		cleanupInterval: cleanupInterval,
		now:             now,
		logger:          cfg.Logger,
		entries:         make(map[string]*entry[T]),
		lastCleanup:     now(),
	}
}

// Loader produces a fresh value for a cache key.
type Loader[T any] func(ctx context.Context) (T, error)

// Fetch returns the cached value for key if it is fresher than ttl, otherwise
// invokes loader and caches the result. A loader failure surfaces as-is; the
// previous entry, expired by definition at that point, is not a fallback.
func (c *Cache[T]) Fetch(ctx context.Context, key string, ttl time.Duration, loader Loader[T]) (T, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		c.logger.Debug().
			Str("cache_key", key).
			Msg("cache hit")
		return e.value, nil
	}

	// Loader runs unlocked: a slow fetch of one key must not block reads or
	// loads of other keys.
	value, err := loader(ctx)
	if err != nil {
		c.logger.Error().Err(err).
			Str("cache_key", key).
			Msg("cache loader failed")
		var zero T
		return zero, err
	}

	now := c.now()
	c.mu.Lock()
	c.entries[key] = &entry[T]{
		value:     value,
		expiresAt: now.Add(ttl),
	}
	c.cleanupIfNeeded()
	c.mu.Unlock()

	return value, nil
}

// Invalidate drops a single key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached entries, fresh or expired.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupIfNeeded evicts expired entries. Caller must hold the write lock.
func (c *Cache[T]) cleanupIfNeeded() {
	now := c.now()
	if now.Sub(c.lastCleanup) < c.cleanupInterval {
		return
	}
	c.lastCleanup = now

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug().
			Int("removed", removed).
			Int("remaining", len(c.entries)).
			Msg("cache cleanup")
	}
}
