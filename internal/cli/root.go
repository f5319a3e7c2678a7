package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/queryops/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
	LogLevel   string

	app AppOptions
}

// NewRootCommand creates the queryops command. app supplies build
// information and test seams; its zero value targets the public APIs.
func NewRootCommand(app AppOptions) *cobra.Command {
	opts := &RootOptions{app: app}

	cmd := &cobra.Command{
		Use:   "queryops",
		Short: "Answer free-text questions from free public APIs",
		Long: `queryops answers short questions (weather, exchange rates, crypto prices,
sports scores, general knowledge) by cascading through free public APIs.

Answers are cached, outbound requests are paced per host, and rate-limit
responses are retried with backoff.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flag",
					fmt.Errorf("format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .yml or .toml); defaults to $"+config.EnvPath)
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override observe.log_level (debug|info|warn|error)")

	cmd.AddCommand(NewAskCommand(opts))
	cmd.AddCommand(NewChatCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewProvidersCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// loadConfig applies flag overrides on top of config.Load.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if o.LogLevel != "" {
		cfg.Observe.LogLevel = o.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, WrapExitError(ExitCommandError, "load config", err)
		}
	}
	return cfg, nil
}

func (o *RootOptions) printer(cmd *cobra.Command) printer {
	return printer{format: o.Format, w: cmd.OutOrStdout()}
}
