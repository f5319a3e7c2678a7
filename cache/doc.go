// Package cache stores resolved answers keyed by normalized query text.
//
// It provides a Cache interface with memory, JSON file, SQLite, and Redis
// backends, TTL policies, namespaced key derivation, and a singleflight
// get-or-load helper used by providers for their internal lookups.
package cache
