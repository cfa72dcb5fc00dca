package agenda

import (
	"fmt"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	"github.com/spf13/cobra"
)

var weekStart string

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show seven days",
	Long: `Show the agenda for the seven days starting at --start.
Without --start the current Monday-based week is shown.

Examples:
  homebase agenda week
  homebase agenda week --start 2025-03-03 -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		if err := checkOutput(); err != nil {
			return err
		}

		view, err := app.GetWeekAgendaHandler.Handle(cmd.Context(), queries.GetWeekAgendaQuery{
			ContextID: app.ContextID,
			WeekStart: weekStart,
			Strategy:  strategy,
		})
		if err != nil {
			return fmt.Errorf("failed to load week: %w", err)
		}

		if outputFormat == cli.OutputJSON {
			return cli.WriteJSON(cmd.OutOrStdout(), view)
		}
		cli.RenderAgenda(cmd.OutOrStdout(), view)
		return nil
	},
}

func init() {
	weekCmd.Flags().StringVar(&weekStart, "start", "", "first day of the week (YYYY-MM-DD)")
}
