package query

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmpty is returned by Parse when the text has no content after normalization.
var ErrEmpty = errors.New("query: empty query")

// Query is a question as typed by the caller plus its normalized form.
type Query struct {
	Raw        string
	Normalized string
}

// New builds a Query from raw text. It never fails; see Parse.
func New(raw string) Query {
	return Query{Raw: raw, Normalized: Normalize(raw)}
}

// Parse builds a Query and rejects text that normalizes to nothing.
func Parse(raw string) (Query, error) {
	q := New(raw)
	if q.Empty() {
		return q, ErrEmpty
	}
	return q, nil
}

// Empty reports whether the normalized form is empty.
func (q Query) Empty() bool {
	return q.Normalized == ""
}

// String returns the normalized form.
func (q Query) String() string {
	return q.Normalized
}

// Normalize composes to NFC, lowercases, trims, and collapses every run of
// whitespace to a single space.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Tokens splits the normalized form on spaces.
func (q Query) Tokens() []string {
	if q.Normalized == "" {
		return nil
	}
	return strings.Split(q.Normalized, " ")
}
