package provider

import (
	"context"
	"encoding/xml"
	"net/url"

	"github.com/jonwraymond/queryops/query"
)

// Arxiv answers with the title of the best matching preprint.
type Arxiv struct{ general }

// NewArxiv creates the arXiv provider.
func NewArxiv(opts Options) *Arxiv {
	return &Arxiv{newGeneral(opts, func(e Endpoints) string { return e.Arxiv })}
}

func (a *Arxiv) Name() string { return "arxiv" }

// arxivFeed is the subset of the Atom feed the provider reads.
type arxivFeed struct {
	Entries []struct {
		Title string `xml:"title"`
	} `xml:"entry"`
}

// Resolve formats "arXiv: <title>".
func (a *Arxiv) Resolve(ctx context.Context, q query.Query) (string, error) {
	body, err := a.fetch.Fetch(ctx, a.endpoint, url.Values{
		"search_query": {"all:" + q.Normalized},
		"start":        {"0"},
		"max_results":  {"1"},
	}, 0)
	if err != nil {
		return "", err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", parseErr(a.Name(), "invalid atom feed", err)
	}
	if len(feed.Entries) == 0 {
		return "", nil
	}
	title := collapse(feed.Entries[0].Title)
	if title == "" {
		return "", nil
	}
	return "arXiv: " + title, nil
}
