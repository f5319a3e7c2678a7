package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/query"
)

// Caller is the boundary between the resolver and provider code. Nothing a
// provider does, including panicking, escapes Call.
type Caller struct {
	mw *observe.Middleware
}

// NewCaller creates a Caller that instruments every call with mw. A nil mw
// records nothing.
func NewCaller(mw *observe.Middleware) *Caller {
	if mw == nil {
		mw = observe.NewMiddleware(nil, nil, nil)
	}
	return &Caller{mw: mw}
}

// Call runs p.Resolve and reduces the outcome to a Result. Errors and panics
// become a miss with Err set; answers are trimmed.
func (c *Caller) Call(ctx context.Context, p Provider, q query.Query) Result {
	meta := Meta(p)

	resolve := c.mw.Wrap(func(ctx context.Context, _ observe.ProviderMeta, _ string) (answer string, err error) {
		defer func() {
			if r := recover(); r != nil {
				answer, err = "", fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		answer, err = p.Resolve(ctx, q)
		return strings.TrimSpace(answer), err
	})

	answer, err := resolve(ctx, meta, q.Normalized)
	if err != nil {
		answer = ""
	}
	return Result{Provider: meta.Name, Answer: answer, Err: err}
}

// Meta describes p for logs, spans, and metrics.
func Meta(p Provider) observe.ProviderMeta {
	meta := observe.ProviderMeta{Name: p.Name()}
	if h, ok := p.(Hoster); ok {
		meta.Host = h.Host()
	}
	for _, t := range p.Tags() {
		meta.Tags = append(meta.Tags, string(t))
	}
	return meta
}
