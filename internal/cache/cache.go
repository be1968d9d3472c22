package cache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Clock returns the current time. Injected so TTL behavior is testable
// without sleeping.
type Clock func() time.Time

type entry[V any] struct {
	val V
	exp time.Time
}

// TTLCache is a bounded in-process TTL cache over an LRU. Reads check expiry
// themselves, so correctness never depends on the background sweeper.
type TTLCache[V any] struct {
	lru    *lru.Cache[string, entry[V]]
	ttl    time.Duration
	now    Clock
	hits   atomic.Int64
	misses atomic.Int64
}

// NewTTL creates a cache holding at most size entries, each valid for ttl
// after its last Set. A nil clock defaults to time.Now.
func NewTTL[V any](size int, ttl time.Duration, now Clock) *TTLCache[V] {
	if now == nil {
		now = time.Now
	}
	l, _ := lru.New[string, entry[V]](size)
	return &TTLCache[V]{lru: l, ttl: ttl, now: now}
}

// Get returns the cached value for key if present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if c.now().After(e.exp) {
		c.lru.Remove(key)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.val, true
}

// Set stores val under key with a fresh TTL.
func (c *TTLCache[V]) Set(key string, val V) {
	c.lru.Add(key, entry[V]{val: val, exp: c.now().Add(c.ttl)})
}

// Delete removes key if present.
func (c *TTLCache[V]) Delete(key string) {
	c.lru.Remove(key)
}

// Len returns the number of entries, expired ones included until swept.
func (c *TTLCache[V]) Len() int {
	return c.lru.Len()
}

// Sweep removes expired entries and returns how many were removed.
func (c *TTLCache[V]) Sweep() int {
	now := c.now()
	removed := 0
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && now.After(e.exp) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

// Stats returns cumulative hit and miss counts.
func (c *TTLCache[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
