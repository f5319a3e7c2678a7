// Package resilience provides the pacing and failure-handling primitives used
// by the outbound transport and the provider chain.
//
// # Patterns
//
//   - Pacer: enforces a minimum interval between dispatches, both globally
//     and per key (usually a host). Pacing and the guarded send happen under
//     one lock so the spacing invariant holds for concurrent callers.
//
//   - Retry: retries failed operations with exponential, linear, or constant
//     backoff, optional additive jitter, and server-directed delays.
//
//   - Circuit Breaker: stops calling a dependency after consecutive failures
//     and probes it again after a reset timeout. Breakers groups one breaker
//     per name.
//
// All time-dependent types take a Clock so tests can run on simulated time.
//
// # Usage
//
//	pacer := resilience.NewPacer(resilience.PacerConfig{
//	    MinInterval:     1200 * time.Millisecond,
//	    DefaultInterval: time.Second,
//	    Intervals:       map[string]time.Duration{"wikipedia.org": time.Second},
//	})
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxRetries:   3,
//	    InitialDelay: time.Second,
//	    MaxJitter:    500 * time.Millisecond,
//	})
//
//	err := retry.Execute(ctx, func(ctx context.Context) error {
//	    return pacer.Pace(ctx, "en.wikipedia.org", 0, func(ctx context.Context) error {
//	        return send(ctx)
//	    })
//	})
package resilience
