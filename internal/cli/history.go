package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"taskbox/internal/bootstrap"
	"taskbox/internal/repository"
)

// NewHistoryCommand prints the audit log the audit worker stored for one item.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <item-id>",
		Short: "Print the stored events of one item",
		Long: `Print the item events persisted by audit-worker, oldest first.

Example:
  taskbox history 42
  taskbox history --limit 10 42`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			cfg, logger, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			app, err := bootstrap.OpenDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("close resources failed", "error", err)
				}
			}()

			events, err := repository.NewItemEventRepository(app.DB).ListByItemID(cmd.Context(), uint(id), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintf(out, "no events for item %d\n", id)
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OCCURRED_AT\tTYPE\tDONE\tTITLE")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%t\t%q\n", e.OccurredAt.UTC().Format(time.RFC3339), e.Type, e.Done, e.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of events to print (1-200)")

	return cmd
}
