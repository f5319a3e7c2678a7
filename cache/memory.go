package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/queryops/resilience"
)

// MemoryCache is an in-memory cache implementation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	clock   resilience.Clock
}

// NewMemoryCache creates a new in-memory cache. A nil clock uses the wall
// clock.
func NewMemoryCache(clock resilience.Clock) *MemoryCache {
	if clock == nil {
		clock = resilience.SystemClock{}
	}
	return &MemoryCache{
		entries: make(map[string]Entry),
		clock:   clock,
	}
}

// Get retrieves a value from the cache. Returns ("", false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if entry.Expired(c.clock.Now()) {
		// Expired - clean up lazily
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.Expired(c.clock.Now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}

	return entry.Value, true
}

// Set stores a value with the given TTL. TTL <= 0 means no caching.
func (c *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	c.entries[key] = Entry{
		Value:    value,
		StoredAt: c.clock.Now(),
		TTL:      ttl,
	}
	c.mu.Unlock()

	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
	return nil
}

// Stats reports the number of stored and stale entries.
func (c *MemoryCache) Stats(_ context.Context) (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return countEntries("memory", c.entries, c.clock.Now()), nil
}

func countEntries(backend string, entries map[string]Entry, now time.Time) Stats {
	s := Stats{Backend: backend, Entries: len(entries)}
	for _, e := range entries {
		if e.Expired(now) {
			s.Expired++
		}
	}
	return s
}

var (
	_ Cache   = (*MemoryCache)(nil)
	_ Clearer = (*MemoryCache)(nil)
	_ Statser = (*MemoryCache)(nil)
)
