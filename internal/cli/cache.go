package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/queryops/cache"
)

// ErrUnsupported indicates the configured cache backend lacks an operation.
var ErrUnsupported = errors.New("cli: operation not supported by cache backend")

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the answer cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show entry counts for the configured cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStats(cmd, rootOpts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(cmd, rootOpts)
		},
	})

	return cmd
}

func runCacheStats(cmd *cobra.Command, rootOpts *RootOptions) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, closeFn, err := openCache(ctx, cfg, rootOpts.app)
	if err != nil {
		return WrapExitError(ExitFailure, "open cache", err)
	}
	defer func() { _ = closeFn() }()

	statser, ok := c.(cache.Statser)
	if !ok {
		return WrapExitError(ExitFailure, "cache stats", fmt.Errorf("%w: %s", ErrUnsupported, cfg.Cache.Type))
	}
	st, err := statser.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "cache stats", err)
	}

	text := fmt.Sprintf("backend: %s\nentries: %d\nexpired: %d", st.Backend, st.Entries, st.Expired)
	return rootOpts.printer(cmd).value(st, text)
}

func runCacheClear(cmd *cobra.Command, rootOpts *RootOptions) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, closeFn, err := openCache(ctx, cfg, rootOpts.app)
	if err != nil {
		return WrapExitError(ExitFailure, "open cache", err)
	}
	defer func() { _ = closeFn() }()

	clearer, ok := c.(cache.Clearer)
	if !ok {
		return WrapExitError(ExitFailure, "cache clear", fmt.Errorf("%w: %s", ErrUnsupported, cfg.Cache.Type))
	}
	if err := clearer.Clear(ctx); err != nil {
		return WrapExitError(ExitFailure, "cache clear", err)
	}

	return rootOpts.printer(cmd).value(map[string]bool{"cleared": true}, "cache cleared")
}
