package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskbox/internal/bootstrap"
)

// NewMigrateCommand creates the schema and exits. serve migrates on start as
// well, so this is only needed for databases shared by several servers.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update the database schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if err := bootstrap.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			logger.Info("schema up to date", "driver", cfg.Database.Driver)
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
