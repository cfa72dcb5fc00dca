package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/commands"
	"github.com/spf13/cobra"
)

var (
	dropDate string
	dropAt   string
)

var dropCmd = &cobra.Command{
	Use:   "drop <item-id>",
	Short: "Schedule an item at a date and time",
	Long: `Create a calendar event for an item at the given slot and mark the item
scheduled. Dropping an already scheduled item moves its event.

Examples:
  homebase schedule drop 3f2c... --date 2025-03-05 --at 14:30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		result, err := app.ScheduleItemHandler.Handle(cmd.Context(), commands.ScheduleItemCommand{
			ContextID: app.ContextID,
			ItemID:    args[0],
			Date:      dropDate,
			StartTime: dropAt,
		})
		if err != nil {
			return fmt.Errorf("failed to schedule item: %w", err)
		}
		app.AfterWrite(cmd.Context())

		printScheduled(cmd, result)
		return nil
	},
}

func printScheduled(cmd *cobra.Command, result *commands.ScheduleItemResult) {
	out := cmd.OutOrStdout()
	verb := "Scheduled"
	switch {
	case result.Unchanged:
		verb = "Already scheduled"
	case result.Moved:
		verb = "Moved"
	}
	_, _ = fmt.Fprintf(out, "%s %s on %s %s-%s\n", verb, result.SourceID, result.Date, result.Interval.Start, result.Interval.End)
	_, _ = fmt.Fprintf(out, "  Event: %s\n", result.EventID)
}

func init() {
	dropCmd.Flags().StringVarP(&dropDate, "date", "d", "", "date (YYYY-MM-DD)")
	dropCmd.Flags().StringVar(&dropAt, "at", "", "start time (HH:MM)")
	_ = dropCmd.MarkFlagRequired("date")
	_ = dropCmd.MarkFlagRequired("at")
}
