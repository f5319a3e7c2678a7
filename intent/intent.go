package intent

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTag is returned by ParseTag for names outside the tag set.
var ErrUnknownTag = errors.New("intent: unknown tag")

// Tag is a coarse question category.
type Tag string

// Tags in routing priority order.
const (
	Weather       Tag = "weather"
	Currency      Tag = "currency"
	Crypto        Tag = "crypto"
	ScoreOrResult Tag = "score"
)

// Priority lists every tag from highest to lowest routing priority.
var Priority = []Tag{Weather, Currency, Crypto, ScoreOrResult}

var keywords = map[Tag][]string{
	Weather: {
		"weather", "wheather", "wheater", "temperature", "forecast", "meteo",
		"how hot", "how cold", "rain", "sunny", "snow",
	},
	Currency: {
		"exchange rate", "convert", "usd to", "eur to", "gbp to", "ron to",
	},
	Crypto: {
		"btc", "bitcoin", "eth", "ethereum", "solana", "doge", "crypto price",
	},
	ScoreOrResult: {
		"score", "result", "last match", "final score", "who won", "match", "vs",
	},
}

// Keywords returns a copy of the trigger phrases for tag.
func Keywords(tag Tag) []string {
	return append([]string(nil), keywords[tag]...)
}

// ParseTag maps a tag name to a Tag.
func ParseTag(s string) (Tag, error) {
	t := Tag(strings.ToLower(strings.TrimSpace(s)))
	if t.index() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownTag, s)
	}
	return t, nil
}

func (t Tag) index() int {
	for i, p := range Priority {
		if p == t {
			return i
		}
	}
	return -1
}

// Set is a set of tags.
type Set uint8

// NewSet returns a Set holding tags. Unknown tags are ignored.
func NewSet(tags ...Tag) Set {
	var s Set
	for _, t := range tags {
		s = s.Add(t)
	}
	return s
}

// Add returns s with t included.
func (s Set) Add(t Tag) Set {
	i := t.index()
	if i < 0 {
		return s
	}
	return s | 1<<i
}

// Has reports whether t is in s.
func (s Set) Has(t Tag) bool {
	i := t.index()
	return i >= 0 && s&(1<<i) != 0
}

// Empty reports whether s has no tags.
func (s Set) Empty() bool { return s == 0 }

// Len returns the number of tags in s.
func (s Set) Len() int { return len(s.Ordered()) }

// Ordered returns the tags of s in Priority order.
func (s Set) Ordered() []Tag {
	var out []Tag
	for _, t := range Priority {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Strings returns the tag names of s in Priority order.
func (s Set) Strings() []string {
	tags := s.Ordered()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

func (s Set) String() string {
	if s.Empty() {
		return "general"
	}
	return strings.Join(s.Strings(), ",")
}

// Classify returns every tag whose keyword table has a phrase contained in
// text. Matching is case-insensitive.
func Classify(text string) Set {
	lower := strings.ToLower(text)

	var s Set
	for _, tag := range Priority {
		for _, kw := range keywords[tag] {
			if strings.Contains(lower, kw) {
				s = s.Add(tag)
				break
			}
		}
	}
	return s
}
