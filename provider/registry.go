package provider

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jonwraymond/queryops/intent"
)

// Registry holds providers in registration order.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: Chain is deterministic for a given registration sequence.
type Registry struct {
	mu        sync.RWMutex
	order     []Provider
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register appends p. Names must be unique.
func (r *Registry) Register(p Provider) error {
	if p == nil || strings.TrimSpace(p.Name()) == "" {
		return ErrInvalidProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, p.Name())
	}
	r.providers[p.Name()] = p
	r.order = append(r.order, p)
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(providers ...Provider) {
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// List returns provider names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	for i, p := range r.order {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Chain returns the candidates for tags: providers serving each tag in
// intent priority order (registration order within a tag), followed by every
// general provider in registration order. Each provider appears once.
func (r *Registry) Chain(tags intent.Set) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.order))
	var chain []Provider
	add := func(p Provider) {
		if !seen[p.Name()] {
			seen[p.Name()] = true
			chain = append(chain, p)
		}
	}

	for _, tag := range tags.Ordered() {
		for _, p := range r.order {
			if serves(p, tag) {
				add(p)
			}
		}
	}
	for _, p := range r.order {
		if len(p.Tags()) == 0 {
			add(p)
		}
	}
	return chain
}

func serves(p Provider, tag intent.Tag) bool {
	for _, t := range p.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}
