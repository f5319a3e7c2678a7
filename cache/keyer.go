package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Keyer derives cache keys.
//
// Contract:
// - Determinism: same inputs must produce same key.
// - Validity: returned keys always pass ValidateKey for non-empty input.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key builds a namespaced key such as "wikipedia:summary:rust".
	Key(namespace string, parts ...string) string

	// QueryKey maps a normalized query to its response-cache key.
	QueryKey(normalized string) string
}

// DefaultKeyer joins parts with ':' and hashes keys that are too long.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a namespaced key.
// Format: <namespace>:<part>:<part>...
// Parts are lowercased and stripped of line breaks. Keys longer than
// MaxKeyLength become <namespace>:sha256:<hash>.
func (k *DefaultKeyer) Key(namespace string, parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(clean(p))
	}
	key := b.String()
	if len(key) <= MaxKeyLength {
		return key
	}
	return namespace + ":sha256:" + digest(key)
}

// QueryKeyNamespace prefixes response-cache keys so no question can collide
// with a key built by Key.
const QueryKeyNamespace = "answer"

// QueryKey returns answer:<normalized>, or answer:sha256:<hash> when that
// would not be a valid key.
func (k *DefaultKeyer) QueryKey(normalized string) string {
	key := QueryKeyNamespace + ":" + normalized
	if ValidateKey(key) == nil {
		return key
	}
	return QueryKeyNamespace + ":sha256:" + digest(normalized)
}

func clean(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	return strings.ToLower(strings.TrimSpace(s))
}

// digest returns the first 16 bytes of SHA-256(s) as hex.
func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
