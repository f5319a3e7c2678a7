package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache       = errors.New("cache: cache is nil")
	ErrInvalidKey     = errors.New("cache: key is invalid")
	ErrKeyTooLong     = errors.New("cache: key exceeds max length")
	ErrInvalidPath    = errors.New("cache: invalid path")
	ErrUnknownBackend = errors.New("cache: unknown backend")
)

// Cache stores answers with a time-to-live.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get never errors; backend failures and expired entries are misses.
// - Expiry: an entry is expired once now - StoredAt > TTL. Get deletes it.
type Cache interface {
	// Get retrieves a cached value. Returns ("", false) on miss.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a value with the given TTL. TTL <= 0 means no caching.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// Entry is one stored answer.
type Entry struct {
	Value    string
	StoredAt time.Time
	TTL      time.Duration
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

// Stats summarizes a backend's contents.
type Stats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
	// Expired counts entries still stored but past their TTL.
	Expired int `json:"expired"`
}

// Statser is implemented by backends that can report Stats.
type Statser interface {
	Stats(ctx context.Context) (Stats, error)
}

// Clearer is implemented by backends that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Pinger is implemented by backends with a reachability check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
