package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/queryops/intent"
	"github.com/jonwraymond/queryops/query"
)

var (
	pairWithAmount = regexp.MustCompile(`\b([0-9]+(?:\.[0-9]+)?)\s*([a-z]{3})\s*(?:to|in)\s*([a-z]{3})\b`)
	pairOnly       = regexp.MustCompile(`\b([a-z]{3})\s*(?:to|in)\s*([a-z]{3})\b`)
)

// Conversion is a parsed "<amount> <FROM> to <TO>" request.
type Conversion struct {
	Amount float64
	From   string
	To     string
}

// ParseConversion reads an optional amount and two three-letter codes
// joined by "to" or "in". The amount defaults to 1.
func ParseConversion(text string) (Conversion, bool) {
	lower := strings.ToLower(text)
	if m := pairWithAmount.FindStringSubmatch(lower); m != nil {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Conversion{Amount: amount, From: strings.ToUpper(m[2]), To: strings.ToUpper(m[3])}, true
		}
	}
	if m := pairOnly.FindStringSubmatch(lower); m != nil {
		return Conversion{Amount: 1, From: strings.ToUpper(m[1]), To: strings.ToUpper(m[2])}, true
	}
	return Conversion{}, false
}

// Format renders the answer line for a converted result.
func (c Conversion) Format(result float64) string {
	return fmt.Sprintf("%s %s ≈ %s %s",
		strconv.FormatFloat(c.Amount, 'g', 6, 64), c.From,
		strconv.FormatFloat(result, 'g', 4, 64), c.To)
}

// Currency converts amounts with exchangerate.host, falling back to
// Frankfurter.
type Currency struct {
	fetch       Fetcher
	primary     string
	frankfurter string
}

// NewCurrency creates the currency provider.
func NewCurrency(opts Options) *Currency {
	opts = opts.withDefaults()
	return &Currency{
		fetch:       opts.Fetcher,
		primary:     opts.Endpoints.ExchangeRate,
		frankfurter: opts.Endpoints.Frankfurter,
	}
}

func (c *Currency) Name() string       { return "currency" }
func (c *Currency) Tags() []intent.Tag { return []intent.Tag{intent.Currency} }
func (c *Currency) TTL() time.Duration { return time.Hour }
func (c *Currency) Host() string       { return hostOf(c.primary) }

// Resolve converts the pair named in q.
func (c *Currency) Resolve(ctx context.Context, q query.Query) (string, error) {
	conv, ok := ParseConversion(q.Normalized)
	if !ok {
		return "", validationErr(c.Name(), "no currency pair in query")
	}
	if conv.From == conv.To {
		return "", validationErr(c.Name(), "source and target currency are the same")
	}

	result, primaryErr := c.exchangeRate(ctx, conv)
	if primaryErr == nil && result != nil {
		return conv.Format(*result), nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	result, secondaryErr := c.frankfurterRate(ctx, conv)
	if secondaryErr == nil && result != nil {
		return conv.Format(*result), nil
	}
	return "", errors.Join(primaryErr, secondaryErr)
}

func (c *Currency) exchangeRate(ctx context.Context, conv Conversion) (*float64, error) {
	var resp struct {
		Result *float64 `json:"result"`
	}
	err := c.fetch.FetchJSON(ctx, c.primary, url.Values{
		"from":   {conv.From},
		"to":     {conv.To},
		"amount": {number(conv.Amount)},
	}, 0, &resp)
	return resp.Result, err
}

func (c *Currency) frankfurterRate(ctx context.Context, conv Conversion) (*float64, error) {
	var resp struct {
		Rates map[string]float64 `json:"rates"`
	}
	err := c.fetch.FetchJSON(ctx, c.frankfurter, url.Values{
		"amount": {number(conv.Amount)},
		"from":   {conv.From},
		"to":     {conv.To},
	}, 0, &resp)
	if err != nil {
		return nil, err
	}
	rate, ok := resp.Rates[conv.To]
	if !ok {
		return nil, nil
	}
	return &rate, nil
}
