package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a value on a cache miss. An empty value means "nothing
// found" and is not cached.
type LoadFunc func(ctx context.Context) (string, error)

// Memo wraps a Cache with get-or-load semantics. Concurrent loads of the
// same key share one call.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: load errors are returned and never cached. Set failures are
// ignored; the loaded value is still returned.
type Memo struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewMemo creates a Memo storing loaded values for ttl. A nil cache makes
// every call load.
func NewMemo(cache Cache, ttl time.Duration) *Memo {
	return &Memo{cache: cache, ttl: ttl}
}

// Do returns the cached value for key or calls load.
func (m *Memo) Do(ctx context.Context, key string, load LoadFunc) (string, error) {
	if m.cache == nil || m.ttl <= 0 {
		return load(ctx)
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil || value == "" {
			return value, err
		}
		_ = m.cache.Set(ctx, key, value, m.ttl)
		return value, nil
	})
	value, _ := v.(string)
	return value, err
}
