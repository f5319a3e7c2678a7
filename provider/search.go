package provider

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/queryops/intent"
	"github.com/jonwraymond/queryops/query"
)

// general holds what every general-knowledge source shares.
type general struct {
	fetch    Fetcher
	endpoint string
	ttl      time.Duration
}

func newGeneral(opts Options, endpoint func(Endpoints) string) general {
	opts = opts.withDefaults()
	return general{fetch: opts.Fetcher, endpoint: endpoint(opts.Endpoints), ttl: opts.GeneralTTL}
}

func (g general) Tags() []intent.Tag { return nil }
func (g general) TTL() time.Duration { return g.ttl }
func (g general) Host() string       { return hostOf(g.endpoint) }

// StackExchange answers with the most relevant Stack Overflow question.
type StackExchange struct{ general }

// NewStackExchange creates the Stack Overflow search provider.
func NewStackExchange(opts Options) *StackExchange {
	return &StackExchange{newGeneral(opts, func(e Endpoints) string { return e.StackExchange })}
}

func (s *StackExchange) Name() string { return "stackexchange" }

// Resolve formats "StackOverflow: <title> (<link>)".
func (s *StackExchange) Resolve(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Items []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
		} `json:"items"`
	}
	err := s.fetch.FetchJSON(ctx, s.endpoint, url.Values{
		"order":    {"desc"},
		"sort":     {"relevance"},
		"q":        {q.Normalized},
		"site":     {"stackoverflow"},
		"pagesize": {"1"},
	}, 0, &resp)
	if err != nil || len(resp.Items) == 0 {
		return "", err
	}

	item := resp.Items[0]
	title := collapse(html.UnescapeString(item.Title))
	if title == "" {
		return "", nil
	}
	if item.Link == "" {
		return "StackOverflow: " + title, nil
	}
	return fmt.Sprintf("StackOverflow: %s (%s)", title, item.Link), nil
}

// GitHub answers with the best matching repository.
type GitHub struct{ general }

// NewGitHub creates the repository search provider.
func NewGitHub(opts Options) *GitHub {
	return &GitHub{newGeneral(opts, func(e Endpoints) string { return e.GitHub })}
}

func (g *GitHub) Name() string { return "github" }

// Resolve formats "GitHub: <owner/name> — <description>".
func (g *GitHub) Resolve(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Items []struct {
			FullName    string `json:"full_name"`
			Description string `json:"description"`
		} `json:"items"`
	}
	err := g.fetch.FetchJSON(ctx, g.endpoint, url.Values{
		"q":        {q.Normalized},
		"per_page": {"1"},
	}, 0, &resp)
	if err != nil || len(resp.Items) == 0 {
		return "", err
	}

	item := resp.Items[0]
	if item.FullName == "" {
		return "", nil
	}
	if desc := Truncate(item.Description, MaxDescriptionLen); desc != "" {
		return fmt.Sprintf("GitHub: %s — %s", item.FullName, desc), nil
	}
	return "GitHub: " + item.FullName, nil
}

// HackerNews answers with the top Algolia hit.
type HackerNews struct{ general }

// NewHackerNews creates the Hacker News search provider.
func NewHackerNews(opts Options) *HackerNews {
	return &HackerNews{newGeneral(opts, func(e Endpoints) string { return e.HackerNews })}
}

func (h *HackerNews) Name() string { return "hackernews" }

// Resolve formats "HN: <title> (<url>)". Comment hits fall back to their
// story's title and URL.
func (h *HackerNews) Resolve(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Hits []struct {
			Title      string `json:"title"`
			StoryTitle string `json:"story_title"`
			URL        string `json:"url"`
			StoryURL   string `json:"story_url"`
		} `json:"hits"`
	}
	err := h.fetch.FetchJSON(ctx, h.endpoint, url.Values{
		"query":       {q.Normalized},
		"hitsPerPage": {"1"},
	}, 0, &resp)
	if err != nil || len(resp.Hits) == 0 {
		return "", err
	}

	hit := resp.Hits[0]
	title := collapse(firstNonEmpty(hit.Title, hit.StoryTitle))
	if title == "" {
		return "", nil
	}
	if link := firstNonEmpty(hit.URL, hit.StoryURL); link != "" {
		return fmt.Sprintf("HN: %s (%s)", title, link), nil
	}
	return "HN: " + title, nil
}

// OpenLibrary answers with the best matching book.
type OpenLibrary struct{ general }

// NewOpenLibrary creates the book search provider.
func NewOpenLibrary(opts Options) *OpenLibrary {
	return &OpenLibrary{newGeneral(opts, func(e Endpoints) string { return e.OpenLibrary })}
}

func (o *OpenLibrary) Name() string { return "openlibrary" }

// Resolve formats "OpenLibrary: <title> by <author> (<year>)".
func (o *OpenLibrary) Resolve(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Docs []struct {
			Title            string   `json:"title"`
			AuthorName       []string `json:"author_name"`
			FirstPublishYear int      `json:"first_publish_year"`
		} `json:"docs"`
	}
	err := o.fetch.FetchJSON(ctx, o.endpoint, url.Values{
		"q":     {q.Normalized},
		"limit": {"1"},
	}, 0, &resp)
	if err != nil || len(resp.Docs) == 0 {
		return "", err
	}

	doc := resp.Docs[0]
	title := collapse(doc.Title)
	if title == "" {
		return "", nil
	}
	var b strings.Builder
	b.WriteString("OpenLibrary: ")
	b.WriteString(title)
	if len(doc.AuthorName) > 0 && doc.AuthorName[0] != "" {
		b.WriteString(" by ")
		b.WriteString(doc.AuthorName[0])
	}
	if doc.FirstPublishYear > 0 {
		fmt.Fprintf(&b, " (%d)", doc.FirstPublishYear)
	}
	return b.String(), nil
}

// Crossref answers with the best matching scholarly work.
type Crossref struct{ general }

// NewCrossref creates the scholarly works provider.
func NewCrossref(opts Options) *Crossref {
	return &Crossref{newGeneral(opts, func(e Endpoints) string { return e.Crossref })}
}

func (c *Crossref) Name() string { return "crossref" }

// Resolve formats "Crossref: <title> (DOI: <doi>)".
func (c *Crossref) Resolve(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Message struct {
			Items []struct {
				Title []string `json:"title"`
				DOI   string   `json:"DOI"`
			} `json:"items"`
		} `json:"message"`
	}
	err := c.fetch.FetchJSON(ctx, c.endpoint, url.Values{
		"query": {q.Normalized},
		"rows":  {"1"},
	}, 0, &resp)
	if err != nil || len(resp.Message.Items) == 0 {
		return "", err
	}

	item := resp.Message.Items[0]
	if len(item.Title) == 0 || collapse(item.Title[0]) == "" {
		return "", nil
	}
	title := collapse(item.Title[0])
	if item.DOI == "" {
		return "Crossref: " + title, nil
	}
	return fmt.Sprintf("Crossref: %s (DOI: %s)", title, item.DOI), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
