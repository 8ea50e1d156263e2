// ABOUTME: In-memory cache with TTL-based expiration
// ABOUTME: Thread-safe generic cache using sync.Map with automatic cleanup

package cache

import (
	"log/slog"
	"sync"
	"time"
)

type entry[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache is a TTL cache keyed by string. The zero duration TTL on New is the
// default for Set; SetWithTTL overrides per entry.
type Cache[V any] struct {
	store sync.Map
	ttl   time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache with the given default TTL and starts its cleanup
// loop. Call Stop when the cache is no longer needed.
func New[V any](ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Stop ends the cleanup goroutine. Safe to call more than once; entries
// still expire lazily on Get afterwards.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get returns the live value for key, if any.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.store.Load(key)
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return zero, false
	}

	e := val.(entry[V])
	if time.Now().After(e.expiresAt) {
		c.store.Delete(key)
		slog.Debug("Cache expired", "key", key)
		return zero, false
	}

	slog.Debug("Cache hit", "key", key)
	return e.data, true
}

// Set stores a value with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	e := entry[V]{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
	c.store.Store(key, e)
	slog.Debug("Cache set", "key", key, "ttl", ttl)
}

// Clear removes a single key.
func (c *Cache[V]) Clear(key string) {
	c.store.Delete(key)
}

func (c *Cache[V]) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[V]) evictExpired() {
	now := time.Now()
	c.store.Range(func(key, val interface{}) bool {
		e := val.(entry[V])
		if now.After(e.expiresAt) {
			c.store.Delete(key)
		}
		return true
	})
}
