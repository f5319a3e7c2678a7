package provider

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Length limits for snippets.
const (
	MaxSummaryLen     = 420
	MaxDescriptionLen = 220
)

// collapse trims s and folds every whitespace run to one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate collapses whitespace in s and, if the result is longer than limit
// runes, cuts it at the last space within the limit and appends "...".
func Truncate(s string, limit int) string {
	s = collapse(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// number formats v with the fewest digits that represent it exactly.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// titleCase capitalizes each word of s.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
