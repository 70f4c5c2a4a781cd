package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
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
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(capacity int, ttl time.Duration) (*LRUCache[string, string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string, string](capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_Creation(t *testing.T) {
	testCases := []struct {
		name      string
		capacity  int
		ttl       time.Duration
		expectCap int
		expectTTL time.Duration
	}{
		{"default values", 0, 0, 1000, 5 * time.Minute},
		{"custom capacity", 500, 0, 500, 5 * time.Minute},
		{"custom TTL", -1, 10 * time.Minute, 1000, 10 * time.Minute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewLRUCache[string, int](tc.capacity, tc.ttl)
			assert.Equal(t, tc.expectCap, c.Stats().Capacity)
			assert.Equal(t, tc.expectTTL, c.defaultTTL)
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestLRUCache_SetGet(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v1", 0)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	c.Set("k", "v2", 0)
	got, ok = c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_TTLExpiration(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("short", "a", 10*time.Second)
	c.Set("default", "b", 0)

	clock.Advance(30 * time.Second)
	_, ok := c.Get("short")
	assert.False(t, ok, "short TTL should have expired")
	_, ok = c.Get("default")
	assert.True(t, ok, "default TTL should still be live")
	assert.Equal(t, 1, c.Len(), "expired entry is dropped on read")

	clock.Advance(time.Minute)
	_, ok = c.Get("default")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c, _ := newTestCache(3, time.Minute)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Set("c", "3", 0)

	// Touch "a" so "b" becomes the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", "4", 0)
	assert.Equal(t, 3, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "b should be evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, "%s should be present", k)
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c, _ := newTestCache(5, time.Minute)

	c.Set("a", "1", 0)
	c.Get("a")
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, 5, s.Capacity)
}

func TestLRUCache_ThreadSafety(t *testing.T) {
	c := NewLRUCache[string, int](50, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*31+i)%80)
				c.Set(key, i, 0)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
}

func BenchmarkLRUCache_SetGet(b *testing.B) {
	c := NewLRUCache[string, int](1000, time.Minute)
	keys := make([]string, 2000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		c.Set(k, i, 0)
		c.Get(k)
	}
}
