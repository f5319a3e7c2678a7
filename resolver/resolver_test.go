package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/queryops/cache"
	"github.com/jonwraymond/queryops/intent"
	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/provider"
	"github.com/jonwraymond/queryops/query"
	"github.com/jonwraymond/queryops/resilience"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeProvider is a scripted provider that counts calls.
type fakeProvider struct {
	name   string
	tags   []intent.Tag
	ttl    time.Duration
	answer string
	err    error
	panics bool
	block  bool
	gate   chan struct{}
	calls  atomic.Int64
}

func (p *fakeProvider) Name() string       { return p.name }
func (p *fakeProvider) Tags() []intent.Tag { return p.tags }
func (p *fakeProvider) TTL() time.Duration { return p.ttl }

func (p *fakeProvider) Resolve(ctx context.Context, _ query.Query) (string, error) {
	p.calls.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if p.panics {
		panic("provider bug")
	}
	return p.answer, p.err
}

func newResolver(t *testing.T, cfg Config, providers ...provider.Provider) *Resolver {
	t.Helper()
	reg := provider.NewRegistry()
	reg.MustRegister(providers...)
	cfg.Registry = reg
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestNew_RequiresRegistry(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoRegistry) {
		t.Errorf("New() error = %v, want ErrNoRegistry", err)
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	c := cache.NewMemoryCache(nil)
	wiki := &fakeProvider{name: "wikipedia", answer: "x", ttl: time.Hour}
	r := newResolver(t, Config{Cache: c}, wiki)

	for _, text := range []string{"", "   ", "\n\t"} {
		if got := r.Resolve(context.Background(), text); got != EmptyQueryAnswer {
			t.Errorf("Resolve(%q) = %q, want %q", text, got, EmptyQueryAnswer)
		}
	}
	if n := wiki.calls.Load(); n != 0 {
		t.Errorf("provider calls = %d, want 0", n)
	}
	if st, _ := c.Stats(context.Background()); st.Entries != 0 {
		t.Errorf("cache entries = %d, want 0", st.Entries)
	}
}

func TestResolve_NormalizationSharesCacheEntry(t *testing.T) {
	wiki := &fakeProvider{name: "wikipedia", answer: "Ada Lovelace: mathematician.", ttl: time.Hour}
	r := newResolver(t, Config{}, wiki)
	ctx := context.Background()

	first := r.ResolveDetailed(ctx, "Who is Ada Lovelace")
	second := r.ResolveDetailed(ctx, "  who IS   ada\tlovelace ")

	if first.Answer != second.Answer {
		t.Errorf("answers differ: %q vs %q", first.Answer, second.Answer)
	}
	if first.Cached || !second.Cached {
		t.Errorf("Cached = (%v, %v), want (false, true)", first.Cached, second.Cached)
	}
	if first.Provider != "wikipedia" {
		t.Errorf("Provider = %q, want wikipedia", first.Provider)
	}
	if second.Query != "who is ada lovelace" {
		t.Errorf("Query = %q, want normalized form", second.Query)
	}
	if n := wiki.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestResolve_ChainOrder(t *testing.T) {
	weather := &fakeProvider{name: "weather", tags: []intent.Tag{intent.Weather}, ttl: time.Hour}
	crypto := &fakeProvider{name: "crypto", tags: []intent.Tag{intent.Crypto}, answer: "never", ttl: time.Hour}
	wiki := &fakeProvider{name: "wikipedia", err: errors.New("http 503"), ttl: time.Hour}
	ddg := &fakeProvider{name: "duckduckgo", panics: true, ttl: time.Hour}
	github := &fakeProvider{name: "github", answer: "GitHub: golang/go", ttl: time.Hour}
	tvmaze := &fakeProvider{name: "tvmaze", answer: "TVMaze: unused", ttl: time.Hour}
	r := newResolver(t, Config{}, weather, crypto, wiki, ddg, github, tvmaze)

	res := r.ResolveDetailed(context.Background(), "weather in gopher city")
	if res.Answer != "GitHub: golang/go" || res.Provider != "github" {
		t.Errorf("ResolveDetailed() = %+v, want github answer", res)
	}
	if len(res.Intents) != 1 || res.Intents[0] != "weather" {
		t.Errorf("Intents = %v, want [weather]", res.Intents)
	}

	want := map[*fakeProvider]int64{weather: 1, crypto: 0, wiki: 1, ddg: 1, github: 1, tvmaze: 0}
	for p, n := range want {
		if got := p.calls.Load(); got != n {
			t.Errorf("%s calls = %d, want %d", p.name, got, n)
		}
	}
}

func TestResolve_ExhaustedFallbackIsCached(t *testing.T) {
	wiki := &fakeProvider{name: "wikipedia", ttl: time.Hour}
	ddg := &fakeProvider{name: "duckduckgo", err: errors.New("boom"), ttl: time.Hour}
	r := newResolver(t, Config{}, wiki, ddg)
	ctx := context.Background()

	res := r.ResolveDetailed(ctx, "zxqv plorb")
	if res.Answer != DefaultFallback || !res.Fallback {
		t.Fatalf("ResolveDetailed() = %+v, want fallback", res)
	}

	again := r.ResolveDetailed(ctx, "zxqv plorb")
	if again.Answer != DefaultFallback || !again.Cached {
		t.Errorf("second ResolveDetailed() = %+v, want cached fallback", again)
	}
	if wiki.calls.Load() != 1 || ddg.calls.Load() != 1 {
		t.Errorf("calls = (%d, %d), want (1, 1)", wiki.calls.Load(), ddg.calls.Load())
	}
}

func TestResolve_CustomFallback(t *testing.T) {
	r := newResolver(t, Config{Fallback: "No idea."}, &fakeProvider{name: "wikipedia", ttl: time.Hour})
	if got := r.Resolve(context.Background(), "anything"); got != "No idea." {
		t.Errorf("Resolve() = %q, want %q", got, "No idea.")
	}
}

func TestResolve_TTLExpiry(t *testing.T) {
	clock := resilience.NewManualClock(epoch)
	crypto := &fakeProvider{name: "crypto", tags: []intent.Tag{intent.Crypto}, answer: "Bitcoin price: $1 / €1", ttl: 5 * time.Minute}
	r := newResolver(t, Config{Clock: clock}, crypto)
	ctx := context.Background()

	r.Resolve(ctx, "btc")
	clock.Advance(5 * time.Minute)
	if res := r.ResolveDetailed(ctx, "btc"); !res.Cached {
		t.Errorf("at TTL: Cached = false, want true")
	}
	clock.Advance(time.Second)
	if res := r.ResolveDetailed(ctx, "btc"); res.Cached {
		t.Errorf("after TTL: Cached = true, want false")
	}
	if n := crypto.calls.Load(); n != 2 {
		t.Errorf("provider calls = %d, want 2", n)
	}
}

func TestResolve_PolicyClampsTTL(t *testing.T) {
	clock := resilience.NewManualClock(epoch)
	wiki := &fakeProvider{name: "wikipedia", answer: "long lived", ttl: 48 * time.Hour}
	r := newResolver(t, Config{
		Clock:  clock,
		Policy: cache.Policy{DefaultTTL: time.Hour, MaxTTL: 2 * time.Hour},
	}, wiki)
	ctx := context.Background()

	r.Resolve(ctx, "question")
	clock.Advance(2*time.Hour + time.Second)
	r.Resolve(ctx, "question")
	if n := wiki.calls.Load(); n != 2 {
		t.Errorf("provider calls = %d, want 2", n)
	}
}

func TestResolve_DisableCache(t *testing.T) {
	wiki := &fakeProvider{name: "wikipedia", answer: "fresh", ttl: time.Hour}
	r := newResolver(t, Config{DisableCache: true}, wiki)
	ctx := context.Background()

	r.Resolve(ctx, "question")
	r.Resolve(ctx, "question")
	r.Resolve(ctx, "unanswerable")
	if n := wiki.calls.Load(); n != 3 {
		t.Errorf("provider calls = %d, want 3", n)
	}
}

func TestResolve_DeadlineFallbackNotCached(t *testing.T) {
	slow := &fakeProvider{name: "wikipedia", block: true, ttl: time.Hour}
	never := &fakeProvider{name: "duckduckgo", answer: "too late", ttl: time.Hour}
	c := cache.NewMemoryCache(nil)
	r := newResolver(t, Config{Cache: c, Deadline: 20 * time.Millisecond}, slow, never)

	res := r.ResolveDetailed(context.Background(), "slow question")
	if !res.Fallback {
		t.Errorf("ResolveDetailed() = %+v, want fallback", res)
	}
	if n := never.calls.Load(); n != 0 {
		t.Errorf("calls after deadline = %d, want 0", n)
	}
	if st, _ := c.Stats(context.Background()); st.Entries != 0 {
		t.Errorf("cache entries = %d, want 0", st.Entries)
	}
}

func TestResolve_CallerDeadline(t *testing.T) {
	slow := &fakeProvider{name: "wikipedia", block: true, ttl: time.Hour}
	c := cache.NewMemoryCache(nil)
	r := newResolver(t, Config{Cache: c, Deadline: 300 * time.Millisecond}, slow)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := r.ResolveDetailed(ctx, "slow question")
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("ResolveDetailed() took %v, want it bounded by the caller deadline", elapsed)
	}
	if !res.Fallback || res.Answer != DefaultFallback {
		t.Errorf("ResolveDetailed() = %+v, want fallback", res)
	}
	if st, _ := c.Stats(context.Background()); st.Entries != 0 {
		t.Errorf("cache entries = %d, want 0", st.Entries)
	}
}

func TestResolve_WaiterHonorsItsOwnDeadline(t *testing.T) {
	gate := make(chan struct{})
	wiki := &fakeProvider{name: "wikipedia", answer: "rust is a language", ttl: time.Hour, gate: gate}
	r := newResolver(t, Config{}, wiki)

	first := make(chan string, 1)
	go func() { first <- r.Resolve(context.Background(), "what is rust") }()
	for wiki.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	second := make(chan string, 1)
	go func() { second <- r.Resolve(ctx, "what is rust") }()

	select {
	case got := <-second:
		if got != DefaultFallback {
			t.Errorf("second Resolve() = %q, want fallback", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second Resolve() outlived its 100ms deadline")
	}

	close(gate)
	if got := <-first; got != "rust is a language" {
		t.Errorf("first Resolve() = %q, want provider answer", got)
	}
	if n := wiki.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestResolve_FirstCallerLeavingDoesNotCancelOthers(t *testing.T) {
	gate := make(chan struct{})
	wiki := &fakeProvider{name: "wikipedia", answer: "shared", ttl: time.Hour, gate: gate}
	c := cache.NewMemoryCache(nil)
	r := newResolver(t, Config{Cache: c}, wiki)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan Resolution, 1)
	go func() { first <- r.ResolveDetailed(ctx, "same question") }()
	for wiki.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	second := make(chan string, 1)
	go func() { second <- r.Resolve(context.Background(), "same question") }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if res := <-first; !res.Fallback {
		t.Errorf("cancelled caller got %+v, want fallback", res)
	}

	close(gate)
	if got := <-second; got != "shared" {
		t.Errorf("remaining caller got %q, want shared", got)
	}
	if got, ok := c.Get(context.Background(), r.cfg.Keyer.QueryKey("same question")); !ok || got != "shared" {
		t.Errorf("cache = %q, %v; want shared answer stored", got, ok)
	}
}

func TestResolve_BreakerSkipsFailingProvider(t *testing.T) {
	clock := resilience.NewManualClock(epoch)
	flaky := &fakeProvider{name: "wikipedia", err: errors.New("http 500"), ttl: time.Hour}
	ddg := &fakeProvider{name: "duckduckgo", answer: "ok", ttl: time.Hour}
	r := newResolver(t, Config{Clock: clock, BreakerFailures: 2, BreakerReset: time.Minute}, flaky, ddg)
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		if got := r.Resolve(ctx, q); got != "ok" {
			t.Errorf("Resolve(%q) = %q, want ok", q, got)
		}
	}
	if n := flaky.calls.Load(); n != 2 {
		t.Errorf("flaky calls = %d, want 2", n)
	}
	if st := r.Breakers()["wikipedia"].State; st != resilience.StateOpen {
		t.Errorf("breaker state = %v, want open", st)
	}

	clock.Advance(time.Minute + time.Second)
	r.Resolve(ctx, "q5")
	if n := flaky.calls.Load(); n != 3 {
		t.Errorf("flaky calls after reset = %d, want 3", n)
	}
}

func TestResolve_MissesAndValidationDoNotTripBreaker(t *testing.T) {
	validation := &validatingProvider{}
	miss := &fakeProvider{name: "duckduckgo", ttl: time.Hour}
	r := newResolver(t, Config{BreakerFailures: 1}, validation, miss)
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3"} {
		r.Resolve(ctx, q)
	}
	if n := validation.calls.Load(); n != 3 {
		t.Errorf("validation provider calls = %d, want 3", n)
	}
	if n := miss.calls.Load(); n != 3 {
		t.Errorf("miss provider calls = %d, want 3", n)
	}
}

// validatingProvider rejects every query as unusable.
type validatingProvider struct{ calls atomic.Int64 }

func (p *validatingProvider) Name() string       { return "weather" }
func (p *validatingProvider) Tags() []intent.Tag { return nil }
func (p *validatingProvider) TTL() time.Duration { return time.Hour }

func (p *validatingProvider) Resolve(context.Context, query.Query) (string, error) {
	p.calls.Add(1)
	return "", &provider.ValidationError{Provider: "weather", Reason: "no location in query"}
}

func TestResolve_CoalescesConcurrentQuestions(t *testing.T) {
	gate := make(chan struct{})
	wiki := &fakeProvider{name: "wikipedia", answer: "shared", ttl: time.Hour, gate: gate}
	r := newResolver(t, Config{}, wiki)

	const callers = 8
	var wg sync.WaitGroup
	answers := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			answers[i] = r.Resolve(context.Background(), "same question")
		}()
	}

	for wiki.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, a := range answers {
		if a != "shared" {
			t.Errorf("answers[%d] = %q, want shared", i, a)
		}
	}
	if n := wiki.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

// countingMetrics records cache lookups.
type countingMetrics struct {
	mu           sync.Mutex
	hits, misses int
}

func (m *countingMetrics) RecordResolve(context.Context, observe.ProviderMeta, time.Duration, observe.Outcome) {
}

func (m *countingMetrics) RecordCacheLookup(_ context.Context, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *countingMetrics) RecordRetry(context.Context, string, string) {}

func TestResolve_RecordsCacheLookups(t *testing.T) {
	metrics := &countingMetrics{}
	wiki := &fakeProvider{name: "wikipedia", answer: "a", ttl: time.Hour}
	r := newResolver(t, Config{Middleware: observe.NewMiddleware(nil, metrics, nil)}, wiki)

	r.Resolve(context.Background(), "q")
	r.Resolve(context.Background(), "q")
	r.Resolve(context.Background(), "q")
	if metrics.hits != 2 || metrics.misses != 1 {
		t.Errorf("lookups = %d hits, %d misses; want 2, 1", metrics.hits, metrics.misses)
	}
}

// lateCache misses on its first Get, as if another resolution stored the
// answer just after the caller looked.
type lateCache struct {
	cache.Cache
	gets atomic.Int64
}

func (c *lateCache) Get(ctx context.Context, key string) (string, bool) {
	if c.gets.Add(1) == 1 {
		return "", false
	}
	return c.Cache.Get(ctx, key)
}

func TestResolve_RecheckHitIsRecorded(t *testing.T) {
	metrics := &countingMetrics{}
	c := &lateCache{Cache: cache.NewMemoryCache(nil)}
	wiki := &fakeProvider{name: "wikipedia", answer: "fresh", ttl: time.Hour}
	r := newResolver(t, Config{Cache: c, Middleware: observe.NewMiddleware(nil, metrics, nil)}, wiki)
	_ = c.Set(context.Background(), r.cfg.Keyer.QueryKey("q"), "stored", time.Hour)

	res := r.ResolveDetailed(context.Background(), "q")
	if !res.Cached || res.Answer != "stored" {
		t.Errorf("ResolveDetailed() = %+v, want cached answer", res)
	}
	if n := wiki.calls.Load(); n != 0 {
		t.Errorf("provider calls = %d, want 0", n)
	}
	if metrics.hits != 1 || metrics.misses != 1 {
		t.Errorf("lookups = %d hits, %d misses; want 1, 1", metrics.hits, metrics.misses)
	}
}
