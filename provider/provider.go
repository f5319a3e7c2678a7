package provider

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/queryops/cache"
	"github.com/jonwraymond/queryops/intent"
	"github.com/jonwraymond/queryops/query"
)

// Provider answers questions from one external source.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Resolve must honor cancellation/deadlines.
// - Errors: ("", nil) is a miss; an error is a failed call. Neither is
// surfaced past Caller.Call.
// - Output: a non-empty answer is a single line.
type Provider interface {
	// Name is the stable registry key, e.g. "wikipedia".
	Name() string

	// Tags lists the intents this provider serves. Empty means general.
	Tags() []intent.Tag

	// TTL is how long an answer from this provider stays cached.
	TTL() time.Duration

	// Resolve answers q or reports a miss.
	Resolve(ctx context.Context, q query.Query) (string, error)
}

// Hoster is implemented by providers that report their primary API host for
// logs and spans.
type Hoster interface {
	Host() string
}

// Fetcher performs paced outbound GETs. transport.Transport implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, params url.Values, extraDelay time.Duration) ([]byte, error)
	FetchJSON(ctx context.Context, rawURL string, params url.Values, extraDelay time.Duration, v any) error
}

// Result is the outcome of one provider call.
type Result struct {
	Provider string
	Answer   string
	// Err is the absorbed cause of a miss, kept for observability only.
	Err error
}

// OK reports whether the call produced an answer.
func (r Result) OK() bool { return r.Answer != "" }

// Endpoints holds the base URL of every built-in source.
type Endpoints struct {
	OpenMeteoGeocode  string
	OpenMeteoForecast string
	Wttr              string
	ExchangeRate      string
	Frankfurter       string
	CoinGecko         string
	SportsDB          string
	WikipediaSearch   string
	WikipediaSummary  string
	DuckDuckGo        string
	StackExchange     string
	GitHub            string
	HackerNews        string
	OpenLibrary       string
	Crossref          string
	Arxiv             string
	TVMaze            string
}

// DefaultEndpoints returns the public endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		OpenMeteoGeocode:  "https://geocoding-api.open-meteo.com/v1/search",
		OpenMeteoForecast: "https://api.open-meteo.com/v1/forecast",
		Wttr:              "https://wttr.in",
		ExchangeRate:      "https://api.exchangerate.host/convert",
		Frankfurter:       "https://api.frankfurter.app/latest",
		CoinGecko:         "https://api.coingecko.com/api/v3/simple/price",
		SportsDB:          "https://www.thesportsdb.com/api/v1/json/3/searchevents.php",
		WikipediaSearch:   "https://en.wikipedia.org/w/rest.php/v1/search/title",
		WikipediaSummary:  "https://en.wikipedia.org/api/rest_v1/page/summary",
		DuckDuckGo:        "https://api.duckduckgo.com/",
		StackExchange:     "https://api.stackexchange.com/2.3/search/advanced",
		GitHub:            "https://api.github.com/search/repositories",
		HackerNews:        "https://hn.algolia.com/api/v1/search",
		OpenLibrary:       "https://openlibrary.org/search.json",
		Crossref:          "https://api.crossref.org/works",
		Arxiv:             "https://export.arxiv.org/api/query",
		TVMaze:            "https://api.tvmaze.com/search/shows",
	}
}

// withDefaults fills empty fields from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&e.OpenMeteoGeocode, d.OpenMeteoGeocode)
	fill(&e.OpenMeteoForecast, d.OpenMeteoForecast)
	fill(&e.Wttr, d.Wttr)
	fill(&e.ExchangeRate, d.ExchangeRate)
	fill(&e.Frankfurter, d.Frankfurter)
	fill(&e.CoinGecko, d.CoinGecko)
	fill(&e.SportsDB, d.SportsDB)
	fill(&e.WikipediaSearch, d.WikipediaSearch)
	fill(&e.WikipediaSummary, d.WikipediaSummary)
	fill(&e.DuckDuckGo, d.DuckDuckGo)
	fill(&e.StackExchange, d.StackExchange)
	fill(&e.GitHub, d.GitHub)
	fill(&e.HackerNews, d.HackerNews)
	fill(&e.OpenLibrary, d.OpenLibrary)
	fill(&e.Crossref, d.Crossref)
	fill(&e.Arxiv, d.Arxiv)
	fill(&e.TVMaze, d.TVMaze)
	return e
}

// Options carries the shared dependencies of the built-in providers.
type Options struct {
	// Fetcher performs every outbound request. Required.
	Fetcher Fetcher

	// Cache backs provider-internal lookups such as Wikipedia summaries.
	// Default: an in-memory cache
	Cache cache.Cache

	// Keyer builds internal cache keys.
	// Default: cache.DefaultKeyer
	Keyer cache.Keyer

	// GeneralTTL is the answer TTL of the general-knowledge providers.
	// Default: 1h
	GeneralTTL time.Duration

	// EncyclopedicTTL is the answer TTL of Wikipedia and of its internal
	// title and summary lookups.
	// Default: 30m
	EncyclopedicTTL time.Duration

	// Endpoints overrides source URLs. Empty fields use DefaultEndpoints.
	Endpoints Endpoints
}

func (o Options) withDefaults() Options {
	if o.Cache == nil {
		o.Cache = cache.NewMemoryCache(nil)
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.GeneralTTL <= 0 {
		o.GeneralTTL = time.Hour
	}
	if o.EncyclopedicTTL <= 0 {
		o.EncyclopedicTTL = 30 * time.Minute
	}
	o.Endpoints = o.Endpoints.withDefaults()
	return o
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
