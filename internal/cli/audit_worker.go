package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskbox/internal/bootstrap"
)

func NewAuditWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "audit-worker",
		Short:        "Consume item events and store them in the audit log",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.NewAuditWorker(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("close resources failed", "error", err)
				}
			}()

			logger.Info("audit worker started", "queue", cfg.RabbitMQ.ItemEventQueue)
			if err := waitForConsumer(ctx, app.EventWorker.Done()); err != nil {
				logger.Error("audit worker exiting", "error", err)
				return err
			}
			logger.Info("audit worker stopped")
			return nil
		},
	}
}

var errConsumerStopped = errors.New("item event consumer stopped unexpectedly")

// waitForConsumer blocks until shutdown is requested or the consumer exits on
// its own. Only the latter is an error, so a supervisor restarts the process.
func waitForConsumer(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return nil
	case <-done:
		if ctx.Err() != nil {
			return nil
		}
		return errConsumerStopped
	}
}
