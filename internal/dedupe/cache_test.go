// ABOUTME: Tests for the single-use cache backing challenge replay protection
// ABOUTME: Validates expiry, size limits, eviction order, sweeping, and atomic Take

package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, maxSize int) (*Cache[string], *testClock) {
	t.Helper()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	cache := NewWithClock[string](maxSize, time.Hour, clock.Now)
	t.Cleanup(cache.Close)
	return cache, clock
}

func TestCache_Take_Unknown(t *testing.T) {
	cache, _ := newTestCache(t, 100)

	_, ok := cache.Take("never-put")
	assert.False(t, ok)
}

func TestCache_Take_Once(t *testing.T) {
	cache, clock := newTestCache(t, 100)

	cache.Put("challenge", "pubkey", clock.Now().Add(time.Minute))

	v, ok := cache.Take("challenge")
	assert.True(t, ok)
	assert.Equal(t, "pubkey", v)

	// A second take is a replay.
	_, ok = cache.Take("challenge")
	assert.False(t, ok)
}

func TestCache_Take_Expired(t *testing.T) {
	cache, clock := newTestCache(t, 100)

	cache.Put("challenge", "pubkey", clock.Now().Add(time.Minute))
	clock.Advance(time.Minute)

	_, ok := cache.Take("challenge")
	assert.False(t, ok, "entries are unusable at their expiry instant")
	assert.Equal(t, 0, cache.Len(), "an expired take still removes the entry")
}

func TestCache_TakeIf(t *testing.T) {
	cache, clock := newTestCache(t, 100)
	cache.Put("challenge", "alice", clock.Now().Add(time.Minute))

	isBob := func(v string) bool { return v == "bob" }
	isAlice := func(v string) bool { return v == "alice" }

	_, found, taken := cache.TakeIf("challenge", isBob)
	assert.True(t, found)
	assert.False(t, taken, "a rejected entry must stay in the cache")
	assert.Equal(t, 1, cache.Len())

	v, found, taken := cache.TakeIf("challenge", isAlice)
	assert.True(t, found)
	assert.True(t, taken)
	assert.Equal(t, "alice", v)

	_, found, _ = cache.TakeIf("challenge", isAlice)
	assert.False(t, found)
}

func TestCache_TakeIf_Expired(t *testing.T) {
	cache, clock := newTestCache(t, 100)
	cache.Put("challenge", "alice", clock.Now().Add(time.Minute))
	clock.Advance(time.Minute)

	_, found, taken := cache.TakeIf("challenge", func(string) bool { return true })
	assert.False(t, found)
	assert.False(t, taken)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_Put_Replaces(t *testing.T) {
	cache, clock := newTestCache(t, 100)

	cache.Put("k", "v1", clock.Now().Add(time.Second))
	cache.Put("k", "v2", clock.Now().Add(time.Hour))
	clock.Advance(time.Minute)

	v, ok := cache.Take("k")
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestCache_EvictionOrder(t *testing.T) {
	cache, clock := newTestCache(t, 3)
	exp := clock.Now().Add(time.Hour)

	cache.Put("first", "1", exp)
	cache.Put("second", "2", exp)
	cache.Put("third", "3", exp)
	cache.Put("fourth", "4", exp)

	assert.Equal(t, 3, cache.Len())
	_, ok := cache.Take("first")
	assert.False(t, ok, "first should be evicted")

	cache.Put("fifth", "5", exp)
	_, ok = cache.Take("second")
	assert.False(t, ok, "second is now the oldest and should be evicted")

	for _, k := range []string{"third", "fourth", "fifth"} {
		_, ok := cache.Take(k)
		assert.True(t, ok, k)
	}
}

func TestCache_RemoveExpired(t *testing.T) {
	cache, clock := newTestCache(t, 100)

	cache.Put("short", "s", clock.Now().Add(time.Second))
	cache.Put("long", "l", clock.Now().Add(time.Hour))
	clock.Advance(time.Minute)

	cache.removeExpired()

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Take("long")
	assert.True(t, ok)
}

func TestCache_Take_Atomic(t *testing.T) {
	cache, clock := newTestCache(t, 100)
	cache.Put("contested", "v", clock.Now().Add(time.Hour))

	const numGoroutines = 100
	var wins atomic.Int32
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			if _, ok := cache.Take("contested"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one goroutine may take an entry")
}

func TestCache_Concurrent(t *testing.T) {
	cache, clock := newTestCache(t, 1000)
	exp := clock.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k-%d-%d", id, j)
				cache.Put(key, key, exp)
				cache.Take(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, cache.Len())
}

func TestCache_Close(t *testing.T) {
	cache := New[int](10, time.Millisecond)

	cache.Close()
	// Multiple closes should not panic.
	cache.Close()
}
