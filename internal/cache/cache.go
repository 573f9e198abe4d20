// Package cache provides a small time-bounded read cache. Entries expire after
// a fixed TTL and every write path is expected to call Invalidate.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache maps keys to values that are served until they are ttl old.
type Cache[K comparable, V any] struct {
	ttl time.Duration
	lru *expirable.LRU[K, V]

	// gen counts invalidations. A load only stores its result if no
	// invalidation happened while it ran.
	mu  sync.Mutex
	gen uint64
}

// New returns a cache whose entries live for ttl. A ttl of zero or less
// disables caching: every lookup misses.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		ttl: ttl,
		lru: expirable.NewLRU[K, V](0, nil, ttl),
	}
}

// Get returns the cached value for key if it has not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Set stores value under key.
func (c *Cache[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}
	c.lru.Add(key, value)
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. hit reports whether the value came from the cache. Load errors are
// not cached, and neither is a result loaded across an Invalidate.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load func(context.Context) (V, error)) (v V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	v, err = load(ctx)
	if err != nil {
		return v, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.Set(key, v)
	}
	return v, false, nil
}

// Invalidate drops every entry.
func (c *Cache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Purge()
}

// Len returns the number of stored entries.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}
