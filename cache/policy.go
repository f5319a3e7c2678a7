package cache

import "time"

// Policy decides how long answers stay cached.
//
// A provider reports its own TTL; the policy substitutes DefaultTTL for a
// missing one and clamps the result to MaxTTL.
type Policy struct {
	// DefaultTTL applies when a provider reports no TTL. Zero disables
	// caching.
	DefaultTTL time.Duration

	// MaxTTL caps every TTL. Zero means uncapped.
	MaxTTL time.Duration
}

// DefaultPolicy caches general answers for an hour and nothing for longer
// than a day.
func DefaultPolicy() Policy {
	return Policy{DefaultTTL: time.Hour, MaxTTL: 24 * time.Hour}
}

// NoCachePolicy stores nothing.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache reports whether the policy stores answers at all.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL resolves a provider TTL against the policy. It returns zero
// when caching is disabled.
func (p Policy) EffectiveTTL(providerTTL time.Duration) time.Duration {
	if !p.ShouldCache() {
		return 0
	}
	ttl := providerTTL
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
