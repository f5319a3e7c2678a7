package health

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/queryops/resilience"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds a whole Run. A check still running at the deadline is
	// reported unhealthy with ErrCheckTimeout.
	// Default: 5 seconds
	Timeout time.Duration

	// Clock stamps results.
	// Default: resilience.SystemClock
	Clock resilience.Clock
}

// Report is the combined outcome of every registered check.
type Report struct {
	Status    Status
	Checks    map[string]Result
	Timestamp time.Time
}

// Aggregator runs a set of checkers in parallel.
type Aggregator struct {
	config AggregatorConfig

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates an empty aggregator.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Clock == nil {
		config.Clock = resilience.SystemClock{}
	}
	return &Aggregator{
		config:   config,
		checkers: make(map[string]Checker),
	}
}

// Register adds checkers, replacing any registered under the same name.
func (a *Aggregator) Register(checkers ...Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range checkers {
		if _, exists := a.checkers[c.Name()]; !exists {
			a.order = append(a.order, c.Name())
		}
		a.checkers[c.Name()] = c
	}
}

// Names returns checker names in registration order.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.order...)
}

// Check runs the checker registered under name.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.run(ctx, checker), nil
}

// Run executes every checker concurrently. An empty aggregator is healthy.
func (a *Aggregator) Run(ctx context.Context) Report {
	a.mu.RLock()
	checkers := make([]Checker, 0, len(a.order))
	for _, name := range a.order {
		checkers = append(checkers, a.checkers[name])
	}
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]Result, len(checkers)),
		Timestamp: a.config.Clock.Now(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := a.run(ctx, checker)
			mu.Lock()
			report.Checks[checker.Name()] = result
			report.Status = report.Status.Worse(result.Status)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return report
}

func (a *Aggregator) run(ctx context.Context, checker Checker) Result {
	start := a.config.Clock.Now()
	done := make(chan Result, 1)

	go func() {
		done <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-done:
	case <-ctx.Done():
		result = Unhealthy("check timed out", ErrCheckTimeout)
	}
	result.Timestamp = start
	result.Duration = a.config.Clock.Now().Sub(start)
	return result
}
