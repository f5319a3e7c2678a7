// Package query defines the normalized form of a free-text question.
//
// The normalized form is the cache key and the classifier input, so it must
// be deterministic and idempotent: Normalize(Normalize(x)) == Normalize(x).
package query
