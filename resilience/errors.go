package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when the retry budget is exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")
)

// RetryError reports an exhausted retry budget and carries the last failure.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("resilience: gave up after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *RetryError) Unwrap() error {
	return e.Err
}

// Is matches ErrMaxRetriesExceeded.
func (e *RetryError) Is(target error) bool {
	return target == ErrMaxRetriesExceeded
}
