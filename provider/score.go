package provider

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jonwraymond/queryops/intent"
	"github.com/jonwraymond/queryops/query"
)

var versus = regexp.MustCompile(`^(.+?)\s+(?:vs\.?|v\.?|versus)\s+(.+)$`)

// scoreFiller is stripped from the outer ends of a matchup.
var scoreFiller = map[string]bool{
	"score": true, "scores": true, "result": true, "results": true, "final": true,
	"last": true, "match": true, "game": true, "who": true, "won": true, "the": true,
	"of": true, "what": true, "was": true, "is": true, "between": true, "latest": true,
	"today": true, "yesterday": true,
}

// Matchup splits "<home> vs <away>" into team names, dropping score words
// around them.
func Matchup(text string) (home, away string, ok bool) {
	m := versus.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}

	left := strings.Fields(m[1])
	for len(left) > 0 && scoreFiller[left[0]] {
		left = left[1:]
	}
	right := strings.Fields(m[2])
	for len(right) > 0 && scoreFiller[right[len(right)-1]] {
		right = right[:len(right)-1]
	}
	if len(left) == 0 || len(right) == 0 {
		return "", "", false
	}
	return strings.Join(left, " "), strings.Join(right, " "), true
}

// Score reports the latest finished meeting of two teams from TheSportsDB.
type Score struct {
	fetch    Fetcher
	endpoint string
}

// NewScore creates the score provider.
func NewScore(opts Options) *Score {
	opts = opts.withDefaults()
	return &Score{fetch: opts.Fetcher, endpoint: opts.Endpoints.SportsDB}
}

func (s *Score) Name() string       { return "score" }
func (s *Score) Tags() []intent.Tag { return []intent.Tag{intent.ScoreOrResult} }
func (s *Score) TTL() time.Duration { return 10 * time.Minute }
func (s *Score) Host() string       { return hostOf(s.endpoint) }

type sportsEvent struct {
	HomeTeam  string  `json:"strHomeTeam"`
	AwayTeam  string  `json:"strAwayTeam"`
	HomeScore *string `json:"intHomeScore"`
	AwayScore *string `json:"intAwayScore"`
	Date      string  `json:"dateEvent"`
}

// Resolve looks up the matchup named in q.
func (s *Score) Resolve(ctx context.Context, q query.Query) (string, error) {
	home, away, ok := Matchup(q.Normalized)
	if !ok {
		return "", validationErr(s.Name(), "no matchup in query")
	}

	event := strings.ReplaceAll(titleCase(home)+" vs "+titleCase(away), " ", "_")
	var resp struct {
		Event []sportsEvent `json:"event"`
	}
	if err := s.fetch.FetchJSON(ctx, s.endpoint, url.Values{"e": {event}}, 0, &resp); err != nil {
		return "", err
	}

	var latest *sportsEvent
	for i := range resp.Event {
		e := &resp.Event[i]
		if e.HomeScore == nil || e.AwayScore == nil || *e.HomeScore == "" || *e.AwayScore == "" {
			continue
		}
		if latest == nil || e.Date > latest.Date {
			latest = e
		}
	}
	if latest == nil {
		return "", nil
	}
	return fmt.Sprintf("Score: %s %s-%s %s (%s)",
		latest.HomeTeam, *latest.HomeScore, *latest.AwayScore, latest.AwayTeam, latest.Date), nil
}
