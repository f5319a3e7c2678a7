package resilience

import (
	"context"
	"strings"
	"sync"
	"time"
)

// PacerConfig configures the pacer.
type PacerConfig struct {
	// MinInterval is the minimum time between any two dispatches.
	// Default: 0 (no global pacing)
	MinInterval time.Duration

	// Intervals overrides the per-key interval. A key matches an entry
	// exactly or as a dotted suffix ("wikipedia.org" matches
	// "en.wikipedia.org"); the longest match wins.
	Intervals map[string]time.Duration

	// DefaultInterval applies to keys with no entry in Intervals.
	// Default: 0
	DefaultInterval time.Duration

	// Clock is the time source.
	// Default: SystemClock
	Clock Clock
}

// Pacer serializes dispatches and spaces them out.
//
// For any two consecutive dispatches, the elapsed time is at least
// MinInterval. For two consecutive dispatches with the same key it is at
// least the key's interval plus the extra delay requested by the later one.
type Pacer struct {
	config PacerConfig

	// sem is a one-slot lock that can be abandoned when ctx is done.
	sem chan struct{}

	mu         sync.Mutex // guards last and keyLast for readers outside sem
	last       time.Time
	keyLast    map[string]time.Time
	dispatches int64
}

// NewPacer creates a new pacer.
func NewPacer(config PacerConfig) *Pacer {
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	if config.MinInterval < 0 {
		config.MinInterval = 0
	}
	if config.DefaultInterval < 0 {
		config.DefaultInterval = 0
	}

	intervals := make(map[string]time.Duration, len(config.Intervals))
	for k, v := range config.Intervals {
		intervals[strings.ToLower(strings.TrimSpace(k))] = v
	}
	config.Intervals = intervals

	return &Pacer{
		config:  config,
		sem:     make(chan struct{}, 1),
		keyLast: make(map[string]time.Time),
	}
}

// IntervalFor resolves the minimum interval for key.
func (p *Pacer) IntervalFor(key string) time.Duration {
	key = strings.ToLower(key)
	if d, ok := p.config.Intervals[key]; ok {
		return d
	}

	best := -1
	interval := p.config.DefaultInterval
	for suffix, d := range p.config.Intervals {
		if len(suffix) > best && strings.HasSuffix(key, "."+suffix) {
			best = len(suffix)
			interval = d
		}
	}
	return interval
}

// Pace waits until key may be dispatched, records the dispatch, and runs send
// while still holding the pacing lock. extra adds to the key's interval for
// this dispatch only.
//
// Waiting for the lock and for the interval both honor ctx; send is not
// called if ctx is done first.
func (p *Pacer) Pace(ctx context.Context, key string, extra time.Duration, send func(context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()

	if wait := p.waitFor(key, extra); wait > 0 {
		if err := p.config.Clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	now := p.config.Clock.Now()
	p.mu.Lock()
	p.last = now
	p.keyLast[strings.ToLower(key)] = now
	p.dispatches++
	p.mu.Unlock()

	return send(ctx)
}

func (p *Pacer) waitFor(key string, extra time.Duration) time.Duration {
	if extra < 0 {
		extra = 0
	}
	now := p.config.Clock.Now()

	p.mu.Lock()
	last := p.last
	keyLast, seen := p.keyLast[strings.ToLower(key)]
	p.mu.Unlock()

	var wait time.Duration
	if !last.IsZero() {
		wait = last.Add(p.config.MinInterval).Sub(now)
	}
	if seen {
		if w := keyLast.Add(p.IntervalFor(key) + extra).Sub(now); w > wait {
			wait = w
		}
	}
	return wait
}

// LastDispatch returns the time of the last dispatch for key.
func (p *Pacer) LastDispatch(key string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.keyLast[strings.ToLower(key)]
	return t, ok
}

// Dispatches returns the number of sends performed.
func (p *Pacer) Dispatches() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dispatches
}

// Config returns the pacer configuration.
func (p *Pacer) Config() PacerConfig {
	return p.config
}
