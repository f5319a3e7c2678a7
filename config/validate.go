package config

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"strings"
)

// ErrInvalid is matched by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "config: invalid configuration: " + strings.Join(msgs, "; ")
}

// Is reports whether target is ErrInvalid.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalid
}

var (
	cacheTypes       = []string{"memory", "file", "sqlite", "redis"}
	logLevels        = []string{"debug", "info", "warn", "error"}
	tracingExporters = []string{"otlp", "jaeger", "stdout", "none"}
	metricsExporters = []string{"otlp", "prometheus", "stdout", "none"}
)

// Validate checks every section and returns ValidationErrors listing all
// problems, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	t := c.Transport
	if t.MinDelaySeconds < 0 {
		add("transport.min_delay_seconds", "must not be negative, got %v", t.MinDelaySeconds)
	}
	if t.DefaultHostDelaySeconds < 0 {
		add("transport.default_host_delay_seconds", "must not be negative, got %v", t.DefaultHostDelaySeconds)
	}
	for host, d := range t.HostDelays {
		if host == "" {
			add("transport.host_delays", "host must not be empty")
		}
		if d < 0 {
			add("transport.host_delays", "delay for %q must not be negative, got %v", host, d)
		}
	}
	if t.TimeoutSeconds <= 0 {
		add("transport.timeout_seconds", "must be positive, got %v", t.TimeoutSeconds)
	}
	if t.MaxRetries < 0 {
		add("transport.max_retries", "must not be negative, got %d", t.MaxRetries)
	}
	if t.MaxBackoffSeconds <= 0 {
		add("transport.max_backoff_seconds", "must be positive, got %v", t.MaxBackoffSeconds)
	}

	cc := c.Cache
	if !slices.Contains(cacheTypes, cc.Type) {
		add("cache.type", "must be one of %s, got %q", strings.Join(cacheTypes, ", "), cc.Type)
	}
	if (cc.Type == "file" || cc.Type == "sqlite") && cc.Path == "" {
		add("cache.path", "required for the %s backend", cc.Type)
	}
	if cc.Type == "redis" && cc.RedisURL == "" {
		add("cache.redis_url", "required for the redis backend")
	}
	if cc.TTLSeconds <= 0 {
		add("cache.ttl_seconds", "must be positive, got %d", cc.TTLSeconds)
	}
	if cc.EncyclopedicTTLSeconds <= 0 {
		add("cache.encyclopedic_ttl_seconds", "must be positive, got %d", cc.EncyclopedicTTLSeconds)
	}
	if cc.MaxTTLSeconds < cc.TTLSeconds {
		add("cache.max_ttl_seconds", "must be at least ttl_seconds (%d), got %d", cc.TTLSeconds, cc.MaxTTLSeconds)
	}

	r := c.Resolver
	if r.DeadlineSeconds <= 0 {
		add("resolver.deadline_seconds", "must be positive, got %v", r.DeadlineSeconds)
	}
	if r.FallbackTTLSeconds < 0 {
		add("resolver.fallback_ttl_seconds", "must not be negative, got %d", r.FallbackTTLSeconds)
	}
	if r.BreakerFailures <= 0 {
		add("resolver.breaker_failures", "must be positive, got %d", r.BreakerFailures)
	}
	if r.BreakerResetSeconds <= 0 {
		add("resolver.breaker_reset_seconds", "must be positive, got %v", r.BreakerResetSeconds)
	}

	s := c.Server
	if s.RateLimit < 0 {
		add("server.rate_limit", "must not be negative, got %v", s.RateLimit)
	}
	if s.RateLimit > 0 && s.RateBurst <= 0 {
		add("server.rate_burst", "must be positive when rate_limit is set, got %d", s.RateBurst)
	}
	for _, proxy := range s.TrustedProxies {
		if !validProxy(proxy) {
			add("server.trusted_proxies", "%q is not an IP address or CIDR prefix", proxy)
		}
	}

	o := c.Observe
	if o.ServiceName == "" {
		add("observe.service_name", "required")
	}
	if !slices.Contains(logLevels, o.LogLevel) {
		add("observe.log_level", "must be one of %s, got %q", strings.Join(logLevels, ", "), o.LogLevel)
	}
	if !slices.Contains(tracingExporters, o.TracingExporter) {
		add("observe.tracing_exporter", "must be one of %s, got %q", strings.Join(tracingExporters, ", "), o.TracingExporter)
	}
	if o.SamplePct < 0 || o.SamplePct > 1 {
		add("observe.sample_pct", "must be within [0, 1], got %v", o.SamplePct)
	}
	if !slices.Contains(metricsExporters, o.MetricsExporter) {
		add("observe.metrics_exporter", "must be one of %s, got %q", strings.Join(metricsExporters, ", "), o.MetricsExporter)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validProxy(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}
