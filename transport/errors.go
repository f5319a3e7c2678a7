package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/queryops/resilience"
)

// Sentinel errors for transport operations.
var (
	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("transport: request failed")

	// ErrRateLimited is matched by every *RateLimitSignal.
	ErrRateLimited = errors.New("transport: rate limited")

	// ErrStatus is matched by every *StatusError.
	ErrStatus = errors.New("transport: unexpected status")

	// ErrBodyTooLarge indicates a response body over Config.MaxBodyBytes.
	ErrBodyTooLarge = errors.New("transport: response body too large")

	// ErrDecode is matched by every *DecodeError.
	ErrDecode = errors.New("transport: invalid response body")

	// ErrConnection wraps transport-level failures: DNS, refused
	// connections, resets and per-attempt timeouts, including those that
	// cut a response body short.
	ErrConnection = errors.New("transport: connection failed")

	// ErrInvalidURL indicates a URL that cannot be requested.
	ErrInvalidURL = errors.New("transport: invalid url")
)

// TransportError reports a request that failed after all attempts.
type TransportError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s failed after %d attempts: %v", e.URL, e.Attempts, e.Cause)
}

// Unwrap returns the last failure.
func (e *TransportError) Unwrap() error { return e.Cause }

// Is matches ErrTransport and resilience.ErrMaxRetriesExceeded.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport || target == resilience.ErrMaxRetriesExceeded
}

// RateLimitSignal reports a 429 response.
type RateLimitSignal struct {
	URL string

	// RetryAfter is the server-directed wait; valid when HasRetryAfter.
	RetryAfter    time.Duration
	HasRetryAfter bool
}

func (e *RateLimitSignal) Error() string {
	if e.HasRetryAfter {
		return fmt.Sprintf("transport: %s rate limited, retry after %s", e.URL, e.RetryAfter)
	}
	return fmt.Sprintf("transport: %s rate limited", e.URL)
}

// Is matches ErrRateLimited.
func (e *RateLimitSignal) Is(target error) bool { return target == ErrRateLimited }

// StatusError reports a non-2xx, non-429 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: %s returned status %d", e.URL, e.StatusCode)
}

// Is matches ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// Temporary reports whether the status is a server error worth retrying.
func (e *StatusError) Temporary() bool { return e.StatusCode >= 500 }

// DecodeError reports a body that could not be decoded.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("transport: decode %s: %v", e.URL, e.Err)
}

// Unwrap returns the decoder error.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
