package provider

import (
	"fmt"
	"slices"
)

// Builtin names every built-in provider in registration order: intent
// providers first, then the general fallback order.
var Builtin = []string{
	"weather", "currency", "crypto", "score",
	"wikipedia", "duckduckgo", "stackexchange", "github",
	"hackernews", "openlibrary", "crossref", "arxiv", "tvmaze",
}

// NewBuiltin constructs the built-in provider called name.
func NewBuiltin(name string, opts Options) (Provider, bool) {
	switch name {
	case "weather":
		return NewWeather(opts), true
	case "currency":
		return NewCurrency(opts), true
	case "crypto":
		return NewCrypto(opts), true
	case "score":
		return NewScore(opts), true
	case "wikipedia":
		return NewWikipedia(opts), true
	case "duckduckgo":
		return NewDuckDuckGo(opts), true
	case "stackexchange":
		return NewStackExchange(opts), true
	case "github":
		return NewGitHub(opts), true
	case "hackernews":
		return NewHackerNews(opts), true
	case "openlibrary":
		return NewOpenLibrary(opts), true
	case "crossref":
		return NewCrossref(opts), true
	case "arxiv":
		return NewArxiv(opts), true
	case "tvmaze":
		return NewTVMaze(opts), true
	default:
		return nil, false
	}
}

// NewDefaultRegistry registers every built-in provider except those named in
// disabled. Shared dependencies are resolved once so all providers use the
// same internal cache.
func NewDefaultRegistry(opts Options, disabled ...string) (*Registry, error) {
	if opts.Fetcher == nil {
		return nil, ErrNoFetcher
	}
	opts = opts.withDefaults()

	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		if !slices.Contains(Builtin, name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
		skip[name] = true
	}

	reg := NewRegistry()
	for _, name := range Builtin {
		if skip[name] {
			continue
		}
		p, _ := NewBuiltin(name, opts)
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
