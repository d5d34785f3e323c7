package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vbprojects/althtml/internal/config"
	"github.com/vbprojects/althtml/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "watch",
		Short:         "Recompile configured templates whenever they change",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := config.LoadProject(configPath)
			if err != nil {
				return err
			}
			runner, err := watch.NewRunner(filepath.Dir(configPath), project)
			if err != nil {
				return err
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "althtml.yaml", "Project config with headers and write pairs")

	return cmd
}
