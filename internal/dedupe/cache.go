// ABOUTME: Thread-safe, size-bounded cache of single-use entries with absolute expiry
// ABOUTME: Used by the auth server so each issued challenge can be answered once

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry stores a value, its expiry, and its position in insertion order.
type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
	element   *list.Element
}

// Cache holds values until they expire, are taken, or are evicted to stay
// under maxSize. Insertion order lives in a linked list so eviction of the
// oldest entry is O(1).
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[V]
	order   *list.List // keys, oldest at front
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache bounded to maxSize entries. A background goroutine
// sweeps expired entries every sweepEvery until Close is called.
func New[V any](maxSize int, sweepEvery time.Duration) *Cache[V] {
	return NewWithClock[V](maxSize, sweepEvery, time.Now)
}

// NewWithClock is New with an injected clock.
func NewWithClock[V any](maxSize int, sweepEvery time.Duration, now func() time.Time) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]*cacheEntry[V]),
		order:   list.New(),
		maxSize: maxSize,
		now:     now,
		done:    make(chan struct{}),
	}
	go c.sweep(sweepEvery)
	return c
}

// Put stores value under key until expiresAt, replacing any previous entry.
// If the cache is full the oldest entry is evicted.
func (c *Cache[V]) Put(key string, value V, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToBack(entry.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.entries[key] = &cacheEntry[V]{
		value:     value,
		expiresAt: expiresAt,
		element:   elem,
	}
}

// Take atomically removes and returns the entry for key. It reports false if
// the key is unknown, already taken, or expired, so concurrent callers
// racing for the same key see exactly one success.
func (c *Cache[V]) Take(key string) (V, bool) {
	v, _, taken := c.TakeIf(key, func(V) bool { return true })
	return v, taken
}

// TakeIf is Take guarded by accept. A live entry is removed only when accept
// returns true; otherwise it stays for a later caller. found reports whether a
// live entry existed and taken whether it was removed.
func (c *Cache[V]) TakeIf(key string, accept func(V) bool) (value V, found, taken bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok {
		return zero, false, false
	}
	if !c.now().Before(entry.expiresAt) {
		c.removeLocked(key, entry)
		return zero, false, false
	}
	if !accept(entry.value) {
		return zero, true, false
	}
	c.removeLocked(key, entry)
	return entry.value, true, true
}

// Len returns the number of stored entries, expired ones included until swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) removeLocked(key string, entry *cacheEntry[V]) {
	c.order.Remove(entry.element)
	delete(c.entries, key)
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *Cache[V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, key)
}

func (c *Cache[V]) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			c.removeLocked(key, entry)
		}
	}
}

// Close stops the sweeper. It is safe to call multiple times.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
