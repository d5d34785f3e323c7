package cli

import (
	"github.com/spf13/cobra"

	"github.com/vbprojects/althtml/internal/logging"
)

// NewRootCmd wires the single-file compile command and its subcommands.
func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "althtml INPUT [OUTPUT]",
		Short:         "Compile althtml markup to HTML",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Configure(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := ""
			if len(args) > 1 {
				output = args[1]
			}
			return runCompileFile(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], output)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}
