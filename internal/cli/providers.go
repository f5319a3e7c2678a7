package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/queryops/provider"
	"github.com/jonwraymond/queryops/transport"
)

// ProviderInfo describes one built-in provider.
type ProviderInfo struct {
	Name    string   `json:"name"`
	Intents []string `json:"intents"`
	Host    string   `json:"host,omitempty"`
	TTL     string   `json:"ttl"`
	Enabled bool     `json:"enabled"`
}

// NewProvidersCommand creates the providers command.
func NewProvidersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List built-in providers in chain order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProviders(cmd, rootOpts)
		},
	}
}

func runProviders(cmd *cobra.Command, rootOpts *RootOptions) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}

	infos, err := listProviders(provider.Options{
		Fetcher:         transport.New(transport.DefaultConfig()),
		GeneralTTL:      cfg.Cache.TTL(),
		EncyclopedicTTL: cfg.Cache.EncyclopedicTTL(),
		Endpoints:       rootOpts.app.Endpoints,
	}, cfg.Providers.Disabled)
	if err != nil {
		return WrapExitError(ExitCommandError, "providers", err)
	}

	out := rootOpts.printer(cmd)
	if out.json() {
		return out.value(infos, "")
	}

	tw := tabwriter.NewWriter(out.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINTENTS\tHOST\tTTL\tENABLED")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
			info.Name, strings.Join(info.Intents, ","), info.Host, info.TTL, info.Enabled)
	}
	return tw.Flush()
}

func listProviders(opts provider.Options, disabled []string) ([]ProviderInfo, error) {
	for _, name := range disabled {
		if !slices.Contains(provider.Builtin, name) {
			return nil, fmt.Errorf("%w: %q", provider.ErrUnknownProvider, name)
		}
	}

	infos := make([]ProviderInfo, 0, len(provider.Builtin))
	for _, name := range provider.Builtin {
		p, ok := provider.NewBuiltin(name, opts)
		if !ok {
			continue
		}
		intents := []string{"general"}
		if tags := p.Tags(); len(tags) > 0 {
			intents = make([]string, len(tags))
			for i, tag := range tags {
				intents[i] = string(tag)
			}
		}
		info := ProviderInfo{
			Name:    p.Name(),
			Intents: intents,
			TTL:     p.TTL().String(),
			Enabled: !slices.Contains(disabled, name),
		}
		if h, ok := p.(provider.Hoster); ok {
			info.Host = h.Host()
		}
		infos = append(infos, info)
	}
	return infos, nil
}
