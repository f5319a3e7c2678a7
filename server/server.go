package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/queryops/health"
	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/resilience"
	"github.com/jonwraymond/queryops/resolver"
)

// ErrNilResolver indicates New was called without a Resolver.
var ErrNilResolver = errors.New("server: nil resolver")

// Resolver answers one question. *resolver.Resolver implements it.
type Resolver interface {
	ResolveDetailed(ctx context.Context, text string) resolver.Resolution
}

var _ Resolver = (*resolver.Resolver)(nil)

// Config configures a Server.
type Config struct {
	// Addr is the listen address.
	// Default: :8080
	Addr string

	// RateLimit is the sustained requests per second per client. Zero
	// disables limiting.
	RateLimit float64

	// RateBurst is the per-client burst.
	// Default: 1
	RateBurst int

	// TrustedProxies are the peers allowed to name the client in
	// X-Forwarded-For or X-Real-IP. Empty means the peer address is always
	// the client.
	TrustedProxies []netip.Prefix

	// ReadTimeout bounds reading one request.
	// Default: 10s
	ReadTimeout time.Duration

	// WriteTimeout bounds writing one response. It must exceed the
	// resolver deadline.
	// Default: 120s
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration

	// Health serves the health endpoints when set.
	Health *health.Aggregator

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	// Logger receives one line per request.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// Clock drives the rate limiter.
	// Default: resilience.SystemClock
	Clock resilience.Clock
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = observe.NopLogger()
	}
	if c.Clock == nil {
		c.Clock = resilience.SystemClock{}
	}
	return c
}

// Server serves resolutions over HTTP.
//
// Contract:
// - Concurrency: safe for concurrent use; Serve may be called once.
// - Context: Serve runs until ctx is done, then shuts down gracefully.
type Server struct {
	cfg      Config
	resolver Resolver
	limiter  *RateLimiter
	handler  http.Handler
}

// New creates a Server for res.
func New(res Resolver, cfg Config) (*Server, error) {
	if res == nil {
		return nil, ErrNilResolver
	}
	cfg = cfg.withDefaults()

	s := &Server{cfg: cfg, resolver: res}
	if cfg.RateLimit > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit,
			Burst:             cfg.RateBurst,
			TrustedProxies:    cfg.TrustedProxies,
			Clock:             cfg.Clock,
		})
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/resolve", s.handleResolve)
	mux.HandleFunc("POST /v1/resolve", s.handleResolve)

	if s.cfg.Health != nil {
		health.RegisterHandlers(mux, s.cfg.Health)
	}
	if s.cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	h = Recover(h, s.cfg.Logger)
	h = Logging(h, s.cfg.Logger)
	return RequestID(h)
}

// ListenAndServe listens on Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then drains in-flight requests for
// up to ShutdownTimeout. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	base := context.WithoutCancel(ctx)
	srv.BaseContext = func(net.Listener) context.Context { return base }

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if s.limiter != nil {
		go s.limiter.CleanupLoop(ctx, time.Minute)
	}

	s.cfg.Logger.Info(ctx, "server listening", observe.Field{Key: "addr", Value: ln.Addr().String()})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	s.cfg.Logger.Info(shutdownCtx, "server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
