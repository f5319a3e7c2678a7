package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := rootOpts.app.withDefaults().Version
			info := map[string]string{
				"version": version,
				"go":      runtime.Version(),
			}
			return rootOpts.printer(cmd).value(info, "queryops "+version)
		},
	}
}
