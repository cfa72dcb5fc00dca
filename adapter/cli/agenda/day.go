package agenda

import (
	"fmt"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	"github.com/spf13/cobra"
)

var dayDate string

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Show one day",
	Long: `Show the agenda for today or a specific date.

Examples:
  homebase agenda day
  homebase agenda day --date 2025-03-05 --strategy intelligent`,
	Aliases: []string{"today", "show"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		if err := checkOutput(); err != nil {
			return err
		}

		view, err := app.GetDayAgendaHandler.Handle(cmd.Context(), queries.GetDayAgendaQuery{
			ContextID: app.ContextID,
			Date:      dayDate,
			Strategy:  strategy,
		})
		if err != nil {
			return fmt.Errorf("failed to load agenda: %w", err)
		}

		if outputFormat == cli.OutputJSON {
			return cli.WriteJSON(cmd.OutOrStdout(), view)
		}
		cli.RenderAgenda(cmd.OutOrStdout(), view)
		return nil
	},
}

func init() {
	dayCmd.Flags().StringVarP(&dayDate, "date", "d", "", "date (YYYY-MM-DD), defaults to today")
}
