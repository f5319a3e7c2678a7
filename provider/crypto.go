package provider

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/jonwraymond/queryops/intent"
	"github.com/jonwraymond/queryops/query"
)

type coinAlias struct {
	pattern *regexp.Regexp
	id      string
}

// coinAliases is checked in order; the first whole-word match wins.
var coinAliases = []coinAlias{
	{regexp.MustCompile(`\bbitcoin\b`), "bitcoin"},
	{regexp.MustCompile(`\bbtc\b`), "bitcoin"},
	{regexp.MustCompile(`\bethereum\b`), "ethereum"},
	{regexp.MustCompile(`\beth\b`), "ethereum"},
	{regexp.MustCompile(`\bsolana\b`), "solana"},
	{regexp.MustCompile(`\bsol\b`), "solana"},
	{regexp.MustCompile(`\bdogecoin\b`), "dogecoin"},
	{regexp.MustCompile(`\bdoge\b`), "dogecoin"},
}

// CoinID returns the CoinGecko id named in text.
func CoinID(text string) (string, bool) {
	for _, a := range coinAliases {
		if a.pattern.MatchString(text) {
			return a.id, true
		}
	}
	return "", false
}

// Crypto quotes coin prices in USD and EUR from CoinGecko.
type Crypto struct {
	fetch    Fetcher
	endpoint string
}

// NewCrypto creates the crypto provider.
func NewCrypto(opts Options) *Crypto {
	opts = opts.withDefaults()
	return &Crypto{fetch: opts.Fetcher, endpoint: opts.Endpoints.CoinGecko}
}

func (c *Crypto) Name() string       { return "crypto" }
func (c *Crypto) Tags() []intent.Tag { return []intent.Tag{intent.Crypto} }
func (c *Crypto) TTL() time.Duration { return 5 * time.Minute }
func (c *Crypto) Host() string       { return hostOf(c.endpoint) }

// Resolve prices the coin named in q.
func (c *Crypto) Resolve(ctx context.Context, q query.Query) (string, error) {
	id, ok := CoinID(q.Normalized)
	if !ok {
		return "", validationErr(c.Name(), "no known coin in query")
	}

	var prices map[string]struct {
		USD *float64 `json:"usd"`
		EUR *float64 `json:"eur"`
	}
	err := c.fetch.FetchJSON(ctx, c.endpoint, url.Values{
		"ids":           {id},
		"vs_currencies": {"usd,eur"},
	}, 0, &prices)
	if err != nil {
		return "", err
	}

	p, ok := prices[id]
	if !ok {
		return "", nil
	}
	if p.USD == nil || p.EUR == nil {
		return "", parseErr(c.Name(), "price missing usd or eur", nil)
	}
	return fmt.Sprintf("%s price: $%s / €%s", titleCase(id), number(*p.USD), number(*p.EUR)), nil
}
