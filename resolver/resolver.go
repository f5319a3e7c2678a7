package resolver

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/queryops/cache"
	"github.com/jonwraymond/queryops/intent"
	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/provider"
	"github.com/jonwraymond/queryops/query"
	"github.com/jonwraymond/queryops/resilience"
)

const (
	// EmptyQueryAnswer is returned for questions with no content.
	EmptyQueryAnswer = "Ask me something."

	// DefaultFallback is returned when no provider answers.
	DefaultFallback = "I couldn't find a solid answer via free APIs. Try rephrasing the question."

	// DefaultDeadline bounds the provider chain of one resolution.
	DefaultDeadline = 90 * time.Second
)

// ErrNoRegistry is returned by New when Config.Registry is nil.
var ErrNoRegistry = errors.New("resolver: registry is required")

// Config configures a Resolver.
type Config struct {
	// Registry supplies the provider chain. Required.
	Registry *provider.Registry

	// Cache stores answers keyed by normalized question.
	// Default: an in-memory cache on Clock
	Cache cache.Cache

	// Keyer maps normalized questions to cache keys.
	// Default: cache.DefaultKeyer
	Keyer cache.Keyer

	// Policy clamps provider TTLs. The zero value means cache.DefaultPolicy.
	Policy cache.Policy

	// DisableCache turns off answer caching entirely.
	DisableCache bool

	// Fallback is the answer when every provider misses.
	// Default: DefaultFallback
	Fallback string

	// FallbackTTL is how long the fallback answer stays cached.
	// Default: Policy.DefaultTTL
	FallbackTTL time.Duration

	// Deadline bounds the provider chain of one resolution.
	// Default: 90s
	Deadline time.Duration

	// BreakerFailures is the number of consecutive provider errors that
	// open the provider's circuit.
	// Default: 5
	BreakerFailures int

	// BreakerReset is how long an open circuit skips its provider.
	// Default: 2m
	BreakerReset time.Duration

	// Middleware instruments provider calls and supplies the resolver's
	// logger and metrics.
	// Default: no-op instrumentation
	Middleware *observe.Middleware

	// Clock drives cache expiry of the default cache and the breakers.
	// Default: resilience.SystemClock
	Clock resilience.Clock
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = resilience.SystemClock{}
	}
	if c.Cache == nil {
		c.Cache = cache.NewMemoryCache(c.Clock)
	}
	if c.Keyer == nil {
		c.Keyer = cache.NewDefaultKeyer()
	}
	switch {
	case c.DisableCache:
		c.Policy = cache.NoCachePolicy()
	case c.Policy == (cache.Policy{}):
		c.Policy = cache.DefaultPolicy()
	}
	if c.Fallback == "" {
		c.Fallback = DefaultFallback
	}
	if c.FallbackTTL <= 0 {
		c.FallbackTTL = c.Policy.DefaultTTL
	}
	if c.Deadline <= 0 {
		c.Deadline = DefaultDeadline
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerReset <= 0 {
		c.BreakerReset = 2 * time.Minute
	}
	if c.Middleware == nil {
		c.Middleware = observe.NewMiddleware(nil, nil, nil)
	}
	return c
}

// Resolution is the detailed outcome of one question.
type Resolution struct {
	// Query is the normalized question.
	Query string `json:"query"`

	// Answer is never empty.
	Answer string `json:"answer"`

	// Provider names the provider that answered. Empty for cached answers,
	// the fallback, and empty questions.
	Provider string `json:"provider,omitempty"`

	// Intents lists the classified intents in priority order.
	Intents []string `json:"intents"`

	// Cached reports whether Answer came from the cache.
	Cached bool `json:"cached"`

	// Fallback reports whether no provider answered.
	Fallback bool `json:"fallback,omitempty"`
}

// Resolver answers questions through a cache and a provider chain.
//
// Contract:
// - Concurrency: safe for concurrent use. Identical questions in flight at
// the same time share one resolution.
// - Context: ctx bounds how long the caller waits. The provider chain runs
// detached from ctx, bounded by Config.Deadline, and caches what it finds
// for later callers.
// - Errors: none are surfaced; the answer is never empty.
type Resolver struct {
	cfg      Config
	caller   *provider.Caller
	breakers *resilience.Breakers
	metrics  observe.Metrics
	logger   observe.Logger
	group    singleflight.Group
}

// New creates a Resolver.
func New(cfg Config) (*Resolver, error) {
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	cfg = cfg.withDefaults()

	return &Resolver{
		cfg:    cfg,
		caller: provider.NewCaller(cfg.Middleware),
		breakers: resilience.NewBreakers(resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.BreakerFailures,
			ResetTimeout: cfg.BreakerReset,
			Clock:        cfg.Clock,
		}),
		metrics: cfg.Middleware.Metrics(),
		logger:  cfg.Middleware.Logger(),
	}, nil
}

// Resolve answers text.
func (r *Resolver) Resolve(ctx context.Context, text string) string {
	return r.ResolveDetailed(ctx, text).Answer
}

// ResolveDetailed answers text and reports how the answer was produced.
func (r *Resolver) ResolveDetailed(ctx context.Context, text string) Resolution {
	q, err := query.Parse(text)
	if err != nil {
		return Resolution{Answer: EmptyQueryAnswer, Intents: []string{}}
	}

	key := r.cfg.Keyer.QueryKey(q.Normalized)
	if answer, ok := r.lookup(ctx, key); ok {
		return r.cached(q, answer)
	}

	// The shared resolution outlives any one caller so that a caller who
	// leaves early does not cut it short for the others.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		// A resolution that finished between lookup and DoChan already
		// stored its answer.
		if answer, ok := r.cfg.Cache.Get(shared, key); ok {
			r.metrics.RecordCacheLookup(shared, true)
			return r.cached(q, answer), nil
		}
		return r.resolve(shared, q, key), nil
	})

	select {
	case <-ctx.Done():
		r.logger.Warn(ctx, "resolution abandoned by caller", observe.Field{Key: "error", Value: ctx.Err().Error()})
		return Resolution{
			Query:    q.Normalized,
			Answer:   r.cfg.Fallback,
			Intents:  intent.Classify(q.Normalized).Strings(),
			Fallback: true,
		}
	case out := <-ch:
		res := out.Val.(Resolution)
		res.Query = q.Normalized
		return res
	}
}

// Breakers reports the circuit state of every provider called so far.
func (r *Resolver) Breakers() map[string]resilience.CircuitBreakerMetrics {
	return r.breakers.Snapshot()
}

// Cache returns the answer cache.
func (r *Resolver) Cache() cache.Cache {
	return r.cfg.Cache
}

// Registry returns the provider registry.
func (r *Resolver) Registry() *provider.Registry {
	return r.cfg.Registry
}

func (r *Resolver) resolve(ctx context.Context, q query.Query, key string) Resolution {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Deadline)
	defer cancel()

	tags := intent.Classify(q.Normalized)
	res := Resolution{Query: q.Normalized, Intents: tags.Strings()}
	logger := r.logger.With(observe.Field{Key: "intents", Value: tags.String()})

	for _, p := range r.cfg.Registry.Chain(tags) {
		if ctx.Err() != nil {
			break
		}

		cb := r.breakers.Get(p.Name())
		if err := cb.Allow(); err != nil {
			logger.Debug(ctx, "provider skipped", observe.Field{Key: "provider", Value: p.Name()},
				observe.Field{Key: "reason", Value: "circuit open"})
			continue
		}

		result := r.caller.Call(ctx, p, q)
		cb.Record(breakerFailure(ctx, result.Err))
		if !result.OK() {
			continue
		}

		res.Answer = result.Answer
		res.Provider = result.Provider
		r.store(ctx, key, result.Answer, r.cfg.Policy.EffectiveTTL(p.TTL()))
		return res
	}

	res.Answer = r.cfg.Fallback
	res.Fallback = true
	if err := ctx.Err(); err != nil {
		logger.Warn(ctx, "resolution cut short", observe.Field{Key: "error", Value: err.Error()})
		return res
	}
	logger.Info(ctx, "no provider answered")
	if r.cfg.Policy.ShouldCache() {
		r.store(ctx, key, res.Answer, r.cfg.FallbackTTL)
	}
	return res
}

func (r *Resolver) lookup(ctx context.Context, key string) (string, bool) {
	answer, ok := r.cfg.Cache.Get(ctx, key)
	r.metrics.RecordCacheLookup(ctx, ok)
	return answer, ok
}

func (r *Resolver) cached(q query.Query, answer string) Resolution {
	return Resolution{
		Query:   q.Normalized,
		Answer:  answer,
		Intents: intent.Classify(q.Normalized).Strings(),
		Cached:  true,
	}
}

func (r *Resolver) store(ctx context.Context, key, answer string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	// Stored even if the caller has gone away.
	if err := r.cfg.Cache.Set(context.WithoutCancel(ctx), key, answer, ttl); err != nil {
		r.logger.Warn(ctx, "cache write failed", observe.Field{Key: "error", Value: err.Error()})
	}
}

// breakerFailure reports the part of a provider outcome that counts against
// its circuit. Misses, unusable queries, and cancellation are not failures.
func breakerFailure(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, provider.ErrValidation):
		return nil
	case ctx.Err() != nil:
		return nil
	default:
		return err
	}
}
