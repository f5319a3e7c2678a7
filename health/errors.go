package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check did not finish in time.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoProviders indicates an empty provider registry.
	ErrNoProviders = errors.New("health: no providers registered")

	// ErrAllCircuitsOpen indicates every provider is being skipped.
	ErrAllCircuitsOpen = errors.New("health: every provider circuit is open")
)
