package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each retry.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero disables retrying; negative values are treated as zero.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	// Default: 1s
	InitialDelay time.Duration

	// MaxDelay caps every delay, including server-directed ones.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// MaxJitter adds a uniform random delay in [0, MaxJitter) to computed
	// backoff. Server-directed delays are not jittered.
	// Default: 0
	MaxJitter time.Duration

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors except context cancellation.
	RetryIf func(err error) bool

	// DelayFor lets the caller dictate the delay for a specific failure,
	// such as a Retry-After header. Returning false falls back to Strategy.
	// attempt is the 1-based number of the attempt that just failed.
	DelayFor func(attempt int, err error) (time.Duration, bool)

	// OnRetry is called before each retry wait.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Clock is the time source for waits.
	// Default: SystemClock
	Clock Clock
}

// Retry implements retry with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool {
			return err != nil &&
				!errors.Is(err, context.Canceled) &&
				!errors.Is(err, context.DeadlineExceeded)
		}
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	return &Retry{config: config}
}

// Execute runs op until it succeeds, fails with a non-retryable error, or the
// budget of MaxRetries+1 attempts is spent. An exhausted budget returns a
// *RetryError wrapping the last failure. A done ctx returns ctx.Err().
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	attempts := r.config.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !r.config.RetryIf(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := r.Delay(attempt, err)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		if err := r.config.Clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return &RetryError{Attempts: attempts, Err: lastErr}
}

// Delay returns the wait before the retry that follows a failed attempt.
func (r *Retry) Delay(attempt int, err error) time.Duration {
	if r.config.DelayFor != nil {
		if d, ok := r.config.DelayFor(attempt, err); ok {
			return r.clamp(d)
		}
	}

	var delay time.Duration
	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.InitialDelay

	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)

	case BackoffExponential:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * multiplier)
	}

	if r.config.MaxJitter > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(r.config.MaxJitter)))
	}

	return r.clamp(delay)
}

func (r *Retry) clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > r.config.MaxDelay {
		return r.config.MaxDelay
	}
	return d
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
