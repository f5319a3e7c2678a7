package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jonwraymond/queryops/cache"
	"github.com/jonwraymond/queryops/config"
	"github.com/jonwraymond/queryops/health"
	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/provider"
	"github.com/jonwraymond/queryops/resilience"
	"github.com/jonwraymond/queryops/resolver"
	"github.com/jonwraymond/queryops/transport"
)

// AppOptions carries build information and test seams into NewApp.
type AppOptions struct {
	// Version is reported by the version command and in telemetry.
	// Default: dev
	Version string

	// Stderr receives logs and stdout exporter output.
	// Default: os.Stderr
	Stderr io.Writer

	// Endpoints overrides provider URLs.
	Endpoints provider.Endpoints

	// Client performs outbound requests.
	Client *http.Client

	// Clock drives pacing, retries and cache expiry.
	// Default: resilience.SystemClock
	Clock resilience.Clock
}

func (o AppOptions) withDefaults() AppOptions {
	if o.Version == "" {
		o.Version = "dev"
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Clock == nil {
		o.Clock = resilience.SystemClock{}
	}
	return o
}

// App is one fully wired resolver with its cache and telemetry.
type App struct {
	Config    *config.Config
	Observer  observe.Observer
	Logger    observe.Logger
	Transport *transport.Transport
	Cache     cache.Cache
	Registry  *provider.Registry
	Resolver  *resolver.Resolver

	// Gatherer exposes Prometheus metrics. Nil unless the metrics exporter
	// is prometheus.
	Gatherer prometheus.Gatherer
}

// NewApp wires config into a ready Resolver. Callers must Close the App.
func NewApp(ctx context.Context, cfg *config.Config, opts AppOptions) (*App, error) {
	opts = opts.withDefaults()
	app := &App{Config: cfg}

	ocfg := observe.Config{
		ServiceName: cfg.Observe.ServiceName,
		Version:     opts.Version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.Observe.TracingExporter != "none",
			Exporter:  cfg.Observe.TracingExporter,
			SamplePct: cfg.Observe.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.Observe.MetricsExporter != "none",
			Exporter: cfg.Observe.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.Observe.LogLevel,
			Writer:  opts.Stderr,
		},
		ExportWriter: opts.Stderr,
	}
	if cfg.Observe.MetricsExporter == "prometheus" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		ocfg.Metrics.Registerer = reg
		app.Gatherer = reg
	}

	obs, err := observe.NewObserver(ctx, ocfg)
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	app.Observer = obs
	app.Logger = obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("middleware: %w", err)
	}

	app.Transport = transport.New(transportConfig(cfg.Transport, opts, mw))

	c, err := cache.Open(ctx, cache.Options{
		Type:       cfg.Cache.Type,
		Path:       cfg.Cache.Path,
		RedisURL:   cfg.Cache.RedisURL,
		DefaultTTL: cfg.Cache.TTL(),
		Clock:      opts.Clock,
		Logger:     app.Logger,
	})
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("cache: %w", err)
	}
	app.Cache = c

	reg, err := provider.NewDefaultRegistry(provider.Options{
		Fetcher:         app.Transport,
		Cache:           c,
		GeneralTTL:      cfg.Cache.TTL(),
		EncyclopedicTTL: cfg.Cache.EncyclopedicTTL(),
		Endpoints:       opts.Endpoints,
	}, cfg.Providers.Disabled...)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("providers: %w", err)
	}
	app.Registry = reg

	res, err := resolver.New(resolver.Config{
		Registry: reg,
		Cache:    c,
		Policy: cache.Policy{
			DefaultTTL: cfg.Cache.TTL(),
			MaxTTL:     cfg.Cache.MaxTTL(),
		},
		DisableCache:    cfg.Cache.Disabled,
		Fallback:        cfg.Resolver.Fallback,
		FallbackTTL:     cfg.Resolver.FallbackTTL(),
		Deadline:        cfg.Resolver.Deadline(),
		BreakerFailures: cfg.Resolver.BreakerFailures,
		BreakerReset:    cfg.Resolver.BreakerReset(),
		Middleware:      mw,
		Clock:           opts.Clock,
	})
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("resolver: %w", err)
	}
	app.Resolver = res

	return app, nil
}

func transportConfig(tc config.TransportConfig, opts AppOptions, mw *observe.Middleware) transport.Config {
	out := transport.DefaultConfig()
	out.MinDelay = tc.MinDelay()
	out.DefaultHostDelay = tc.DefaultHostDelay()
	out.Timeout = tc.Timeout()
	out.MaxRetries = tc.MaxRetries
	out.MaxBackoff = tc.MaxBackoff()
	for host, d := range tc.HostDelayDurations() {
		out.HostDelays[host] = d
	}
	if tc.UserAgent != "" {
		out.UserAgent = tc.UserAgent
	}
	out.Client = opts.Client
	out.Clock = opts.Clock
	out.Logger = mw.Logger()
	out.Metrics = mw.Metrics()
	return out
}

// Health builds the aggregator behind the health endpoints.
func (a *App) Health() *health.Aggregator {
	agg := health.NewAggregator(health.AggregatorConfig{})
	agg.Register(
		health.NewCacheChecker(a.Cache),
		health.NewRegistryChecker(a.Registry),
		health.NewBreakerChecker(a.Resolver, a.Registry),
	)
	return agg
}

// Close releases the cache and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if closer, ok := a.Cache.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if a.Observer != nil {
		errs = append(errs, a.Observer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// openCache opens only the configured cache backend.
func openCache(ctx context.Context, cfg *config.Config, opts AppOptions) (cache.Cache, func() error, error) {
	c, err := cache.Open(ctx, cache.Options{
		Type:       cfg.Cache.Type,
		Path:       cfg.Cache.Path,
		RedisURL:   cfg.Cache.RedisURL,
		DefaultTTL: cfg.Cache.TTL(),
		Clock:      opts.withDefaults().Clock,
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error { return nil }
	if closer, ok := c.(io.Closer); ok {
		closeFn = closer.Close
	}
	return c, closeFn, nil
}
