package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taskbox/internal/config"
	"taskbox/internal/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "taskbox",
		Short: "Single-page item list served from one endpoint",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a .toml or .yaml config file (default $CONFIG_FILE or "+config.DefaultPath+")")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewAuditWorkerCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

func loadConfig(opts *RootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
