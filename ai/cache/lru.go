// Package cache provides a bounded in-process cache for classification results.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// LRUCache is a fixed-capacity cache with per-entry TTL and least-recently-used eviction.
// It is safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	items      map[K]*list.Element
	recency    *list.List // front = most recently used
	capacity   int
	defaultTTL time.Duration
	now        func() time.Time
	mu         sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

type item[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Hits     int64
	Misses   int64
	Size     int
	Capacity int
}

// NewLRUCache creates a cache holding at most capacity entries.
// A non-positive capacity yields 1000; a non-positive TTL yields 5 minutes.
func NewLRUCache[K comparable, V any](capacity int, defaultTTL time.Duration) *LRUCache[K, V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &LRUCache[K, V]{
		items:      make(map[K]*list.Element, capacity),
		recency:    list.New(),
		capacity:   capacity,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the live value for key and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	it := el.Value.(*item[K, V])
	if c.now().After(it.expiresAt) {
		c.unlink(el)
		c.misses.Add(1)
		return zero, false
	}

	c.recency.MoveToFront(el)
	c.hits.Add(1)
	return it.value, true
}

// Set stores value under key. A non-positive ttl uses the cache default.
func (c *LRUCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if el, ok := c.items[key]; ok {
		it := el.Value.(*item[K, V])
		it.value = value
		it.expiresAt = expiresAt
		c.recency.MoveToFront(el)
		return
	}

	for len(c.items) >= c.capacity {
		oldest := c.recency.Back()
		if oldest == nil {
			break
		}
		c.unlink(oldest)
	}

	c.items[key] = c.recency.PushFront(&item[K, V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counters along with the current size.
func (c *LRUCache[K, V]) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Size:     c.Len(),
		Capacity: c.capacity,
	}
}

// unlink must be called with mu held.
func (c *LRUCache[K, V]) unlink(el *list.Element) {
	it := c.recency.Remove(el).(*item[K, V])
	delete(c.items, it.key)
}
