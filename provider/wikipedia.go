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

// WikipediaDelay is the extra spacing Wikipedia requests wait on top of the
// transport's host delay.
const WikipediaDelay = 1500 * time.Millisecond

// Wikipedia answers with the summary of the best title match.
type Wikipedia struct {
	fetch   Fetcher
	search  string
	summary string
	keyer   cache.Keyer
	memo    *cache.Memo
	ttl     time.Duration
}

// NewWikipedia creates the Wikipedia provider. Title lookups and summaries
// are memoized in opts.Cache for opts.EncyclopedicTTL.
func NewWikipedia(opts Options) *Wikipedia {
	opts = opts.withDefaults()
	return &Wikipedia{
		fetch:   opts.Fetcher,
		search:  opts.Endpoints.WikipediaSearch,
		summary: strings.TrimRight(opts.Endpoints.WikipediaSummary, "/"),
		keyer:   opts.Keyer,
		memo:    cache.NewMemo(opts.Cache, opts.EncyclopedicTTL),
		ttl:     opts.EncyclopedicTTL,
	}
}

func (w *Wikipedia) Name() string       { return "wikipedia" }
func (w *Wikipedia) Tags() []intent.Tag { return nil }
func (w *Wikipedia) TTL() time.Duration { return w.ttl }
func (w *Wikipedia) Host() string       { return hostOf(w.summary) }

// Resolve finds the top title for q and formats "<Title>: <extract>".
func (w *Wikipedia) Resolve(ctx context.Context, q query.Query) (string, error) {
	title, err := w.memo.Do(ctx, w.keyer.Key("wikipedia", "search", q.Normalized), func(ctx context.Context) (string, error) {
		return w.topTitle(ctx, q.Normalized)
	})
	if err != nil || title == "" {
		return "", err
	}

	return w.memo.Do(ctx, w.keyer.Key("wikipedia", "summary", title), func(ctx context.Context) (string, error) {
		return w.summarize(ctx, title)
	})
}

func (w *Wikipedia) topTitle(ctx context.Context, text string) (string, error) {
	var resp struct {
		Pages []struct {
			Title string `json:"title"`
		} `json:"pages"`
	}
	err := w.fetch.FetchJSON(ctx, w.search, url.Values{
		"q":     {text},
		"limit": {"1"},
	}, WikipediaDelay, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Pages) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Pages[0].Title), nil
}

func (w *Wikipedia) summarize(ctx context.Context, title string) (string, error) {
	var resp struct {
		Extract string `json:"extract"`
	}
	endpoint := w.summary + "/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	if err := w.fetch.FetchJSON(ctx, endpoint, nil, WikipediaDelay, &resp); err != nil {
		return "", err
	}
	extract := Truncate(resp.Extract, MaxSummaryLen)
	if extract == "" {
		return "", nil
	}
	return title + ": " + extract, nil
}
