package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete queryops configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Resolver  ResolverConfig  `yaml:"resolver" toml:"resolver"`
	Providers ProvidersConfig `yaml:"providers" toml:"providers"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Observe   ObserveConfig   `yaml:"observe" toml:"observe"`
}

// TransportConfig configures the shared outbound HTTP path.
type TransportConfig struct {
	// MinDelaySeconds separates any two outbound requests.
	// Default: 1.2
	MinDelaySeconds float64 `envconfig:"QUERYOPS_MIN_DELAY_SECONDS" yaml:"min_delay_seconds" toml:"min_delay_seconds"`

	// HostDelays overrides the per-host spacing, in seconds. The env form
	// is "host:seconds,host:seconds".
	HostDelays map[string]float64 `envconfig:"QUERYOPS_HOST_DELAYS" yaml:"host_delays" toml:"host_delays"`

	// DefaultHostDelaySeconds applies to hosts without an override.
	// Default: 1.0
	DefaultHostDelaySeconds float64 `envconfig:"QUERYOPS_DEFAULT_HOST_DELAY_SECONDS" yaml:"default_host_delay_seconds" toml:"default_host_delay_seconds"`

	// TimeoutSeconds bounds one request attempt.
	// Default: 10
	TimeoutSeconds float64 `envconfig:"QUERYOPS_TIMEOUT_SECONDS" yaml:"timeout_seconds" toml:"timeout_seconds"`

	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries int `envconfig:"QUERYOPS_MAX_RETRIES" yaml:"max_retries" toml:"max_retries"`

	// MaxBackoffSeconds caps any single retry wait.
	// Default: 30
	MaxBackoffSeconds float64 `envconfig:"QUERYOPS_MAX_BACKOFF_SECONDS" yaml:"max_backoff_seconds" toml:"max_backoff_seconds"`

	// UserAgent overrides the outbound User-Agent header.
	UserAgent string `envconfig:"QUERYOPS_USER_AGENT" yaml:"user_agent" toml:"user_agent"`
}

// CacheConfig configures the answer cache.
type CacheConfig struct {
	// Type is memory, file, sqlite or redis.
	// Default: file
	Type string `envconfig:"QUERYOPS_CACHE_TYPE" yaml:"type" toml:"type"`

	// Path is the file or database path. ${VAR} and a leading ~/ expand.
	// Default: <user cache dir>/queryops/cache.json
	Path string `envconfig:"QUERYOPS_CACHE_PATH" yaml:"path" toml:"path"`

	// RedisURL addresses the redis backend. ${VAR} expands.
	RedisURL string `envconfig:"QUERYOPS_REDIS_URL" yaml:"redis_url" toml:"redis_url"`

	// TTLSeconds is the default answer lifetime.
	// Default: 3600
	TTLSeconds int `envconfig:"QUERYOPS_CACHE_TTL_SECONDS" yaml:"ttl_seconds" toml:"ttl_seconds"`

	// EncyclopedicTTLSeconds is the lifetime of Wikipedia lookups.
	// Default: 1800
	EncyclopedicTTLSeconds int `envconfig:"QUERYOPS_CACHE_ENCYCLOPEDIC_TTL_SECONDS" yaml:"encyclopedic_ttl_seconds" toml:"encyclopedic_ttl_seconds"`

	// MaxTTLSeconds clamps every provider TTL.
	// Default: 86400
	MaxTTLSeconds int `envconfig:"QUERYOPS_CACHE_MAX_TTL_SECONDS" yaml:"max_ttl_seconds" toml:"max_ttl_seconds"`

	// Disabled turns answer caching off.
	Disabled bool `envconfig:"QUERYOPS_CACHE_DISABLED" yaml:"disabled" toml:"disabled"`
}

// ResolverConfig configures the provider cascade.
type ResolverConfig struct {
	// DeadlineSeconds bounds one resolution.
	// Default: 90
	DeadlineSeconds float64 `envconfig:"QUERYOPS_DEADLINE_SECONDS" yaml:"deadline_seconds" toml:"deadline_seconds"`

	// Fallback replaces the built-in "no answer" text.
	Fallback string `envconfig:"QUERYOPS_FALLBACK" yaml:"fallback" toml:"fallback"`

	// FallbackTTLSeconds is how long the fallback stays cached.
	// Default: TTLSeconds
	FallbackTTLSeconds int `envconfig:"QUERYOPS_FALLBACK_TTL_SECONDS" yaml:"fallback_ttl_seconds" toml:"fallback_ttl_seconds"`

	// BreakerFailures opens a provider's circuit after that many
	// consecutive errors.
	// Default: 5
	BreakerFailures int `envconfig:"QUERYOPS_BREAKER_FAILURES" yaml:"breaker_failures" toml:"breaker_failures"`

	// BreakerResetSeconds is how long an open circuit stays open.
	// Default: 120
	BreakerResetSeconds float64 `envconfig:"QUERYOPS_BREAKER_RESET_SECONDS" yaml:"breaker_reset_seconds" toml:"breaker_reset_seconds"`
}

// ProvidersConfig selects the provider chain.
type ProvidersConfig struct {
	// Disabled names built-in providers to leave out.
	Disabled []string `envconfig:"QUERYOPS_DISABLED_PROVIDERS" yaml:"disabled" toml:"disabled"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	// Addr is the listen address. ${VAR} expands.
	// Default: :8080
	Addr string `envconfig:"QUERYOPS_ADDR" yaml:"addr" toml:"addr"`

	// RateLimit is the sustained requests per second allowed per client.
	// Zero disables limiting.
	// Default: 2
	RateLimit float64 `envconfig:"QUERYOPS_RATE_LIMIT" yaml:"rate_limit" toml:"rate_limit"`

	// RateBurst is the per-client burst size.
	// Default: 5
	RateBurst int `envconfig:"QUERYOPS_RATE_BURST" yaml:"rate_burst" toml:"rate_burst"`

	// TrustedProxies lists proxy IPs or CIDR prefixes whose X-Forwarded-For
	// and X-Real-IP headers name the client. Empty trusts no proxy.
	TrustedProxies []string `envconfig:"QUERYOPS_TRUSTED_PROXIES" yaml:"trusted_proxies" toml:"trusted_proxies"`

	// ShutdownSeconds bounds graceful shutdown.
	// Default: 10
	ShutdownSeconds float64 `envconfig:"QUERYOPS_SHUTDOWN_SECONDS" yaml:"shutdown_seconds" toml:"shutdown_seconds"`
}

// ObserveConfig configures logging, tracing and metrics.
type ObserveConfig struct {
	// ServiceName labels telemetry.
	// Default: queryops
	ServiceName string `envconfig:"QUERYOPS_SERVICE_NAME" yaml:"service_name" toml:"service_name"`

	// LogLevel is debug, info, warn or error.
	// Default: info
	LogLevel string `envconfig:"QUERYOPS_LOG_LEVEL" yaml:"log_level" toml:"log_level"`

	// TracingExporter is otlp, jaeger, stdout or none.
	// Default: none
	TracingExporter string `envconfig:"QUERYOPS_TRACING_EXPORTER" yaml:"tracing_exporter" toml:"tracing_exporter"`

	// SamplePct is the trace sampling ratio in [0, 1].
	// Default: 1
	SamplePct float64 `envconfig:"QUERYOPS_TRACE_SAMPLE_PCT" yaml:"sample_pct" toml:"sample_pct"`

	// MetricsExporter is otlp, prometheus, stdout or none.
	// Default: prometheus
	MetricsExporter string `envconfig:"QUERYOPS_METRICS_EXPORTER" yaml:"metrics_exporter" toml:"metrics_exporter"`
}

// Default returns a Config holding every default value.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults fills zero-valued fields. File and env values applied later
// override them.
func (c *Config) setDefaults() {
	if c.Transport.MinDelaySeconds == 0 {
		c.Transport.MinDelaySeconds = 1.2
	}
	if c.Transport.DefaultHostDelaySeconds == 0 {
		c.Transport.DefaultHostDelaySeconds = 1.0
	}
	if c.Transport.TimeoutSeconds == 0 {
		c.Transport.TimeoutSeconds = 10
	}
	if c.Transport.MaxRetries == 0 {
		c.Transport.MaxRetries = 3
	}
	if c.Transport.MaxBackoffSeconds == 0 {
		c.Transport.MaxBackoffSeconds = 30
	}

	if c.Cache.Type == "" {
		c.Cache.Type = "file"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = defaultCachePath()
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 3600
	}
	if c.Cache.EncyclopedicTTLSeconds == 0 {
		c.Cache.EncyclopedicTTLSeconds = 1800
	}
	if c.Cache.MaxTTLSeconds == 0 {
		c.Cache.MaxTTLSeconds = 86400
	}

	if c.Resolver.DeadlineSeconds == 0 {
		c.Resolver.DeadlineSeconds = 90
	}
	if c.Resolver.BreakerFailures == 0 {
		c.Resolver.BreakerFailures = 5
	}
	if c.Resolver.BreakerResetSeconds == 0 {
		c.Resolver.BreakerResetSeconds = 120
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 2
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 5
	}
	if c.Server.ShutdownSeconds == 0 {
		c.Server.ShutdownSeconds = 10
	}

	if c.Observe.ServiceName == "" {
		c.Observe.ServiceName = "queryops"
	}
	if c.Observe.LogLevel == "" {
		c.Observe.LogLevel = "info"
	}
	if c.Observe.TracingExporter == "" {
		c.Observe.TracingExporter = "none"
	}
	if c.Observe.SamplePct == 0 {
		c.Observe.SamplePct = 1
	}
	if c.Observe.MetricsExporter == "" {
		c.Observe.MetricsExporter = "prometheus"
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "queryops", "cache.json")
}

// Seconds converts a seconds value from configuration into a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// MinDelay returns MinDelaySeconds as a Duration.
func (t TransportConfig) MinDelay() time.Duration { return Seconds(t.MinDelaySeconds) }

// DefaultHostDelay returns DefaultHostDelaySeconds as a Duration.
func (t TransportConfig) DefaultHostDelay() time.Duration { return Seconds(t.DefaultHostDelaySeconds) }

// Timeout returns TimeoutSeconds as a Duration.
func (t TransportConfig) Timeout() time.Duration { return Seconds(t.TimeoutSeconds) }

// MaxBackoff returns MaxBackoffSeconds as a Duration.
func (t TransportConfig) MaxBackoff() time.Duration { return Seconds(t.MaxBackoffSeconds) }

// HostDelayDurations returns HostDelays keyed by host as Durations. It
// returns nil when no overrides are set.
func (t TransportConfig) HostDelayDurations() map[string]time.Duration {
	if len(t.HostDelays) == 0 {
		return nil
	}
	out := make(map[string]time.Duration, len(t.HostDelays))
	for host, s := range t.HostDelays {
		out[host] = Seconds(s)
	}
	return out
}

// TTL returns TTLSeconds as a Duration.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

// EncyclopedicTTL returns EncyclopedicTTLSeconds as a Duration.
func (c CacheConfig) EncyclopedicTTL() time.Duration {
	return time.Duration(c.EncyclopedicTTLSeconds) * time.Second
}

// MaxTTL returns MaxTTLSeconds as a Duration.
func (c CacheConfig) MaxTTL() time.Duration { return time.Duration(c.MaxTTLSeconds) * time.Second }

// Deadline returns DeadlineSeconds as a Duration.
func (r ResolverConfig) Deadline() time.Duration { return Seconds(r.DeadlineSeconds) }

// FallbackTTL returns FallbackTTLSeconds as a Duration. Zero means the
// resolver default.
func (r ResolverConfig) FallbackTTL() time.Duration {
	return time.Duration(r.FallbackTTLSeconds) * time.Second
}

// BreakerReset returns BreakerResetSeconds as a Duration.
func (r ResolverConfig) BreakerReset() time.Duration { return Seconds(r.BreakerResetSeconds) }

// ShutdownTimeout returns ShutdownSeconds as a Duration.
func (s ServerConfig) ShutdownTimeout() time.Duration { return Seconds(s.ShutdownSeconds) }
