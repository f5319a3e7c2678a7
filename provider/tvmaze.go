package provider

import (
	"context"
	"net/url"
	"strings"

	"github.com/jonwraymond/queryops/query"
)

// TVMaze answers with the best matching TV show.
type TVMaze struct{ general }

// NewTVMaze creates the TV show provider.
func NewTVMaze(opts Options) *TVMaze {
	return &TVMaze{newGeneral(opts, func(e Endpoints) string { return e.TVMaze })}
}

func (t *TVMaze) Name() string { return "tvmaze" }

// Resolve formats "TVMaze: <name> — (premiered <date>) — rating <avg>",
// omitting parts the API leaves empty.
func (t *TVMaze) Resolve(ctx context.Context, q query.Query) (string, error) {
	var resp []struct {
		Show struct {
			Name      string `json:"name"`
			Premiered string `json:"premiered"`
			Rating    struct {
				Average *float64 `json:"average"`
			} `json:"rating"`
		} `json:"show"`
	}
	err := t.fetch.FetchJSON(ctx, t.endpoint, url.Values{"q": {q.Normalized}}, 0, &resp)
	if err != nil || len(resp) == 0 {
		return "", err
	}

	show := resp[0].Show
	name := collapse(show.Name)
	if name == "" {
		return "", nil
	}
	parts := []string{"TVMaze: " + name}
	if show.Premiered != "" {
		parts = append(parts, "(premiered "+show.Premiered+")")
	}
	if show.Rating.Average != nil {
		parts = append(parts, "rating "+number(*show.Rating.Average))
	}
	return strings.Join(parts, " — "), nil
}
