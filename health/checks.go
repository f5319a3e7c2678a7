package health

import (
	"context"
	"fmt"
	"slices"

	"github.com/jonwraymond/queryops/cache"
	"github.com/jonwraymond/queryops/provider"
	"github.com/jonwraymond/queryops/resilience"
)

// CacheChecker checks the answer cache. Backends implementing cache.Pinger
// are pinged; backends implementing cache.Statser report their counts. A
// failed ping is unhealthy; failing stats only degrade.
type CacheChecker struct {
	cache cache.Cache
}

// NewCacheChecker creates a checker for c.
func NewCacheChecker(c cache.Cache) *CacheChecker {
	return &CacheChecker{cache: c}
}

// Name returns "cache".
func (c *CacheChecker) Name() string { return "cache" }

// Check pings and inspects the cache.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if c.cache == nil {
		return Unhealthy("no cache configured", cache.ErrNilCache)
	}
	if p, ok := c.cache.(cache.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return Unhealthy("cache unreachable", err)
		}
	}

	s, ok := c.cache.(cache.Statser)
	if !ok {
		return Healthy("cache reachable")
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return Degraded("cache stats unavailable: " + err.Error())
	}
	return Healthy(fmt.Sprintf("%d entries", stats.Entries)).WithDetails(map[string]any{
		"backend": stats.Backend,
		"entries": stats.Entries,
		"expired": stats.Expired,
	})
}

// RegistryChecker fails when no provider is registered.
type RegistryChecker struct {
	registry *provider.Registry
}

// NewRegistryChecker creates a checker for reg.
func NewRegistryChecker(reg *provider.Registry) *RegistryChecker {
	return &RegistryChecker{registry: reg}
}

// Name returns "providers".
func (c *RegistryChecker) Name() string { return "providers" }

// Check counts registered providers.
func (c *RegistryChecker) Check(context.Context) Result {
	if c.registry == nil || c.registry.Len() == 0 {
		return Unhealthy("no providers registered", ErrNoProviders)
	}
	names := c.registry.List()
	return Healthy(fmt.Sprintf("%d providers", len(names))).WithDetails(map[string]any{
		"providers": names,
	})
}

// BreakerSource reports per-provider circuit state. resolver.Resolver
// implements it.
type BreakerSource interface {
	Breakers() map[string]resilience.CircuitBreakerMetrics
}

// BreakerChecker reports open provider circuits. Any open circuit degrades;
// when every registered provider is open the process cannot answer anything
// but the fallback and the check is unhealthy.
type BreakerChecker struct {
	source   BreakerSource
	registry *provider.Registry
}

// NewBreakerChecker creates a checker over src's circuits for the providers
// in reg.
func NewBreakerChecker(src BreakerSource, reg *provider.Registry) *BreakerChecker {
	return &BreakerChecker{source: src, registry: reg}
}

// Name returns "circuits".
func (c *BreakerChecker) Name() string { return "circuits" }

// Check lists providers whose circuit is not closed.
func (c *BreakerChecker) Check(context.Context) Result {
	var open, halfOpen []string
	for name, m := range c.source.Breakers() {
		switch m.State {
		case resilience.StateOpen:
			open = append(open, name)
		case resilience.StateHalfOpen:
			halfOpen = append(halfOpen, name)
		}
	}
	slices.Sort(open)
	slices.Sort(halfOpen)
	details := map[string]any{"open": open, "half_open": halfOpen}

	switch {
	case len(open) == 0:
		return Healthy("all circuits closed").WithDetails(details)
	case c.registry != nil && len(open) >= c.registry.Len():
		return Unhealthy("every provider circuit is open", ErrAllCircuitsOpen).WithDetails(details)
	default:
		return Degraded(fmt.Sprintf("%d provider circuits open", len(open))).WithDetails(details)
	}
}

var (
	_ Checker = (*CheckerFunc)(nil)
	_ Checker = (*CacheChecker)(nil)
	_ Checker = (*RegistryChecker)(nil)
	_ Checker = (*BreakerChecker)(nil)
)
