// ABOUTME: Thread-safe TTL cache for deduplicating gateway events
// ABOUTME: Single atomic check-and-mark so racing handlers cannot both proceed

package dedupe

import (
	"sync"
	"time"
)

// Cache tracks recently seen event ids. Entries expire after a TTL and the
// cache is capped in size, evicting oldest entries first.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	order   []string // insertion order, oldest first
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache with the given TTL and maximum size, and starts a
// background sweeper for expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// CheckAndMark atomically checks whether the key was seen within the TTL and
// marks it if not. Returns true for a duplicate, false for a new key.
func (c *Cache) CheckAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if at, ok := c.seen[key]; ok && time.Since(at) < c.ttl {
		return true
	}

	if _, ok := c.seen[key]; !ok {
		if len(c.seen) >= c.maxSize {
			c.evictOldestLocked()
		}
		c.order = append(c.order, key)
	}
	c.seen[key] = time.Now()
	return false
}

func (c *Cache) evictOldestLocked() {
	for len(c.order) > 0 {
		key := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.seen[key]; ok {
			delete(c.seen, key)
			return
		}
	}
}

// sweep drops expired entries periodically so the map does not grow without
// bound between evictions.
func (c *Cache) sweep() {
	interval := c.ttl
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			kept := c.order[:0]
			for _, key := range c.order {
				at, ok := c.seen[key]
				if !ok {
					continue
				}
				if time.Since(at) >= c.ttl {
					delete(c.seen, key)
					continue
				}
				kept = append(kept, key)
			}
			c.order = kept
			c.mu.Unlock()
		}
	}
}

// Close stops the background sweeper. Safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}
