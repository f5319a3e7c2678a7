package provider

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/jonwraymond/queryops/query"
)

// DuckDuckGo answers from the DuckDuckGo Instant Answer API.
type DuckDuckGo struct{ general }

// NewDuckDuckGo creates the instant-answer provider.
func NewDuckDuckGo(opts Options) *DuckDuckGo {
	return &DuckDuckGo{newGeneral(opts, func(e Endpoints) string { return e.DuckDuckGo })}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Resolve returns the direct answer if there is one, else the abstract.
func (d *DuckDuckGo) Resolve(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		// Answer is a string for most queries and an object for widgets.
		Answer       json.RawMessage `json:"Answer"`
		AbstractText string          `json:"AbstractText"`
		Heading      string          `json:"Heading"`
	}
	err := d.fetch.FetchJSON(ctx, d.endpoint, url.Values{
		"q":             {q.Normalized},
		"format":        {"json"},
		"no_redirect":   {"1"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}, 0, &resp)
	if err != nil {
		return "", err
	}

	var answer string
	if len(resp.Answer) > 0 && json.Unmarshal(resp.Answer, &answer) == nil {
		if answer = collapse(answer); answer != "" {
			return answer, nil
		}
	}

	abstract := Truncate(resp.AbstractText, MaxSummaryLen)
	if abstract == "" {
		return "", nil
	}
	if heading := collapse(resp.Heading); heading != "" {
		return heading + ": " + abstract, nil
	}
	return abstract, nil
}
