package store

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	deadline time.Time
}

func (e entry[T]) expired(now time.Time) bool { return now.After(e.deadline) }

// Cache is an in-process map whose entries live for a fixed TTL after they are
// written. Expired entries are dropped on read and by Sweep.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache whose entries expire ttl after Put.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// lookup returns the live entry for key, evicting it if it has expired.
func (c *Cache[T]) lookup(key string) (entry[T], bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return e, false
	}
	if e.expired(c.now()) {
		c.Delete(key)
		return entry[T]{}, false
	}
	return e, true
}

// Get returns the value stored under key while it is live.
func (c *Cache[T]) Get(key string) (T, bool) {
	e, ok := c.lookup(key)
	return e.value, ok
}

// Remaining reports how long the entry under key stays live.
func (c *Cache[T]) Remaining(key string) (time.Duration, bool) {
	e, ok := c.lookup(key)
	if !ok {
		return 0, false
	}
	return e.deadline.Sub(c.now()), true
}

// Put stores value under key, restarting its TTL.
func (c *Cache[T]) Put(key string, value T) {
	c.mu.Lock()
	c.entries[key] = entry[T]{value: value, deadline: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete drops key.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *Cache[T]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until stop closes. onSweep, when
// non-nil, receives the number of entries each pass dropped.
func (c *Cache[T]) RunSweeper(interval time.Duration, stop <-chan struct{}, onSweep func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := c.Sweep(); onSweep != nil {
				onSweep(n)
			}
		case <-stop:
			return
		}
	}
}
