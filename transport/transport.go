package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/resilience"
)

// DefaultUserAgent identifies this client to public APIs.
const DefaultUserAgent = "queryops/1.0 (+https://github.com/jonwraymond/queryops)"

// DefaultMaxBodyBytes bounds response bodies.
const DefaultMaxBodyBytes = 2 << 20

// DefaultHostDelays is the per-host spacing applied by DefaultConfig.
// Entries match the host exactly or as a dotted suffix.
var DefaultHostDelays = map[string]time.Duration{
	"wikipedia.org":                1000 * time.Millisecond,
	"api.duckduckgo.com":           1000 * time.Millisecond,
	"wttr.in":                      1000 * time.Millisecond,
	"api.open-meteo.com":           1000 * time.Millisecond,
	"geocoding-api.open-meteo.com": 1000 * time.Millisecond,
	"nominatim.openstreetmap.org":  1500 * time.Millisecond,
	"hn.algolia.com":               800 * time.Millisecond,
	"api.stackexchange.com":        800 * time.Millisecond,
	"api.github.com":               1000 * time.Millisecond,
	"openlibrary.org":              800 * time.Millisecond,
	"api.crossref.org":             800 * time.Millisecond,
	"export.arxiv.org":             800 * time.Millisecond,
	"api.coingecko.com":            1200 * time.Millisecond,
	"api.exchangerate.host":        800 * time.Millisecond,
	"api.frankfurter.app":          800 * time.Millisecond,
	"api.tvmaze.com":               800 * time.Millisecond,
	"www.thesportsdb.com":          1000 * time.Millisecond,
}

// Config configures a Transport.
type Config struct {
	// MinDelay is the minimum spacing between any two requests.
	// Default: 0 (DefaultConfig uses 1.2s)
	MinDelay time.Duration

	// HostDelays is the minimum spacing between two requests to one host.
	HostDelays map[string]time.Duration

	// DefaultHostDelay applies to hosts with no HostDelays entry.
	// Default: 0 (DefaultConfig uses 1s)
	DefaultHostDelay time.Duration

	// Timeout bounds one attempt. Ignored when Client is set.
	// Default: 10s
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Negative values are treated as zero. DefaultConfig uses 3.
	MaxRetries int

	// MaxBackoff caps every wait between attempts.
	// Default: 30s
	MaxBackoff time.Duration

	// UserAgent is sent with every request.
	// Default: DefaultUserAgent
	UserAgent string

	// MaxBodyBytes bounds response bodies.
	// Default: 2 MiB
	MaxBodyBytes int64

	// Client performs requests.
	// Default: &http.Client{Timeout: Timeout}
	Client *http.Client

	// Clock drives pacing and backoff waits.
	// Default: resilience.SystemClock
	Clock resilience.Clock

	// Logger receives per-attempt and per-retry entries.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// Metrics counts retries.
	// Default: observe.NopMetrics()
	Metrics observe.Metrics
}

// DefaultConfig returns the production pacing and retry settings.
func DefaultConfig() Config {
	hosts := make(map[string]time.Duration, len(DefaultHostDelays))
	for k, v := range DefaultHostDelays {
		hosts[k] = v
	}
	return Config{
		MinDelay:         1200 * time.Millisecond,
		HostDelays:       hosts,
		DefaultHostDelay: time.Second,
		Timeout:          10 * time.Second,
		MaxRetries:       3,
		MaxBackoff:       30 * time.Second,
		UserAgent:        DefaultUserAgent,
		MaxBodyBytes:     DefaultMaxBodyBytes,
	}
}

// Transport is a paced, retrying HTTP GET client.
//
// Contract:
// - Concurrency: safe for concurrent use; all callers share one pacer.
// - Context: every wait and send honors ctx; a done ctx is returned as is.
// - Errors: see package documentation.
type Transport struct {
	config      Config
	client      *http.Client
	pacer       *resilience.Pacer
	retryConfig resilience.RetryConfig
}

// New creates a Transport.
func New(config Config) *Transport {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.Clock == nil {
		config.Clock = resilience.SystemClock{}
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NopMetrics()
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	t := &Transport{
		config: config,
		client: client,
		pacer: resilience.NewPacer(resilience.PacerConfig{
			MinInterval:     config.MinDelay,
			Intervals:       config.HostDelays,
			DefaultInterval: config.DefaultHostDelay,
			Clock:           config.Clock,
		}),
	}
	t.retryConfig = resilience.RetryConfig{
		MaxRetries:   config.MaxRetries,
		InitialDelay: time.Second,
		Multiplier:   2,
		Strategy:     resilience.BackoffExponential,
		MaxJitter:    500 * time.Millisecond,
		MaxDelay:     config.MaxBackoff,
		RetryIf:      retryable,
		DelayFor:     rateLimitDelay,
		Clock:        config.Clock,
	}
	return t
}

// Fetch performs a paced GET and returns the body of a 2xx response.
// extraDelay adds to the host spacing for this request only.
func (t *Transport) Fetch(ctx context.Context, rawURL string, params url.Values, extraDelay time.Duration) ([]byte, error) {
	return t.fetch(ctx, rawURL, params, extraDelay, "*/*")
}

// FetchJSON performs a paced GET and decodes the JSON body into v.
func (t *Transport) FetchJSON(ctx context.Context, rawURL string, params url.Values, extraDelay time.Duration, v any) error {
	body, err := t.fetch(ctx, rawURL, params, extraDelay, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{URL: rawURL, Err: err}
	}
	return nil
}

// Pacer exposes the shared pacer for inspection.
func (t *Transport) Pacer() *resilience.Pacer {
	return t.pacer
}

// Config returns the effective configuration.
func (t *Transport) Config() Config {
	return t.config
}

func (t *Transport) fetch(ctx context.Context, rawURL string, params url.Values, extraDelay time.Duration, accept string) ([]byte, error) {
	target, err := buildURL(rawURL, params)
	if err != nil {
		return nil, err
	}
	host := strings.ToLower(target.Hostname())
	logger := t.config.Logger.With(observe.Field{Key: "host", Value: host})

	var (
		body     []byte
		attempts int
	)
	op := func(ctx context.Context) error {
		attempts++
		return t.pacer.Pace(ctx, host, extraDelay, func(ctx context.Context) error {
			logger.Debug(ctx, "outbound request",
				observe.Field{Key: "url", Value: target.Redacted()},
				observe.Field{Key: "attempt", Value: attempts},
			)
			b, err := t.send(ctx, target, accept)
			if err == nil {
				body = b
			}
			return err
		})
	}

	retryCfg := t.retryConfig
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		reason := retryReason(err)
		t.config.Metrics.RecordRetry(ctx, host, reason)
		logger.Warn(ctx, "retrying request",
			observe.Field{Key: "attempt", Value: attempt},
			observe.Field{Key: "reason", Value: reason},
			observe.Field{Key: "wait_ms", Value: delay.Milliseconds()},
			observe.Field{Key: "error", Value: err},
		)
	}

	err = resilience.NewRetry(retryCfg).Execute(ctx, op)
	if err == nil {
		return body, nil
	}

	var exhausted *resilience.RetryError
	if errors.As(err, &exhausted) {
		return nil, &TransportError{URL: target.Redacted(), Attempts: exhausted.Attempts, Cause: exhausted.Err}
	}
	return nil, err
}

func (t *Transport) send(ctx context.Context, target *url.URL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", t.config.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := t.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Flatten so a client timeout is not mistaken for caller cancellation.
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		signal := &RateLimitSignal{URL: target.Redacted()}
		signal.RetryAfter, signal.HasRetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), t.config.Clock.Now())
		return nil, signal

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: target.Redacted(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.config.MaxBodyBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// A reset or client timeout mid-body is retried like a failed dial.
		return nil, fmt.Errorf("%w: reading body: %v", ErrConnection, err)
	}
	if int64(len(body)) > t.config.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, target.Redacted(), t.config.MaxBodyBytes)
	}
	return body, nil
}

// buildURL merges params into rawURL's query string.
func buildURL(rawURL string, params url.Values) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// retryable reports whether err is a 429, a 5xx, or a transport-level failure.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrConnection)
}

// rateLimitDelay returns the wait after a 429: Retry-After when present,
// else 2s per attempt so far.
func rateLimitDelay(attempt int, err error) (time.Duration, bool) {
	var signal *RateLimitSignal
	if !errors.As(err, &signal) {
		return 0, false
	}
	if signal.HasRetryAfter {
		return signal.RetryAfter, true
	}
	return time.Duration(2*attempt) * time.Second, true
}

func retryReason(err error) string {
	var status *StatusError
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.As(err, &status):
		return "server_error"
	default:
		return "transport"
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP-date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if when, err := http.ParseTime(v); err == nil {
		d := when.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
