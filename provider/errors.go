package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrParse indicates an unexpected response shape.
	ErrParse = errors.New("provider: unexpected response")

	// ErrValidation indicates a query this provider cannot handle.
	ErrValidation = errors.New("provider: invalid query")

	// ErrPanic indicates a provider panicked during Resolve.
	ErrPanic = errors.New("provider: panic")

	// ErrDuplicate indicates a second registration under one name.
	ErrDuplicate = errors.New("provider: already registered")

	// ErrInvalidProvider indicates a nil provider or one without a name.
	ErrInvalidProvider = errors.New("provider: invalid provider")

	// ErrUnknownProvider indicates a name that is not a built-in provider.
	ErrUnknownProvider = errors.New("provider: unknown provider")

	// ErrNoFetcher indicates Options without a Fetcher.
	ErrNoFetcher = errors.New("provider: fetcher is required")
)

// ParseError reports a response that decoded but lacked expected fields.
type ParseError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ValidationError reports a query the provider cannot act on, such as a
// weather question without a location. It short-circuits that provider only.
type ValidationError struct {
	Provider string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func parseErr(provider, reason string, err error) error {
	return &ParseError{Provider: provider, Reason: reason, Err: err}
}

func validationErr(provider, reason string) error {
	return &ValidationError{Provider: provider, Reason: reason}
}
