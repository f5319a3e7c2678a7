package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/queryops/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolutions over HTTP",
		Long: `Serve GET /v1/resolve?q=..., the health endpoints and, with the prometheus
metrics exporter, /metrics. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address; overrides server.addr")

	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions, addr string) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, rootOpts.app)
	if err != nil {
		return WrapExitError(ExitFailure, "start", err)
	}
	defer func() { _ = app.Close(context.WithoutCancel(ctx)) }()

	proxies, err := server.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return WrapExitError(ExitCommandError, "config", err)
	}

	srv, err := server.New(app.Resolver, server.Config{
		Addr:            cfg.Server.Addr,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		TrustedProxies:  proxies,
		WriteTimeout:    cfg.Resolver.Deadline() + cfg.Server.ShutdownTimeout(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout(),
		Health:          app.Health(),
		Gatherer:        app.Gatherer,
		Logger:          app.Logger,
		Clock:           rootOpts.app.Clock,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "server", err)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return WrapExitError(ExitFailure, "serve", err)
	}
	return nil
}
