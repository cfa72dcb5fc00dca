package event

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/commands"
	"github.com/spf13/cobra"
)

var (
	addDate        string
	addStart       string
	addEnd         string
	addDuration    int
	addDescription string
	addType        string
	addPriority    string
	addTags        []string
	addAssignee    string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a calendar event",
	Long: `Add an event to the household calendar.

Examples:
  homebase event add "Dentist" --date 2025-03-05 --start 14:00 --end 15:00
  homebase event add "School run" --date 2025-03-05 --start 07:30 --duration 20`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		result, err := app.CreateEventHandler.Handle(cmd.Context(), commands.CreateEventCommand{
			ContextID:   app.ContextID,
			Title:       strings.Join(args, " "),
			Description: addDescription,
			Date:        addDate,
			StartTime:   addStart,
			EndTime:     addEnd,
			Duration:    addDuration,
			Type:        addType,
			Priority:    addPriority,
			Tags:        addTags,
			AssignedTo:  addAssignee,
		})
		if err != nil {
			return fmt.Errorf("failed to add event: %w", err)
		}
		app.AfterWrite(cmd.Context())

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added event %s (%s-%s)\n", result.EventID, result.Interval.Start, result.Interval.End)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addDate, "date", "d", "", "date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addStart, "start", "", "start time (HH:MM)")
	addCmd.Flags().StringVar(&addEnd, "end", "", "end time (HH:MM)")
	addCmd.Flags().IntVarP(&addDuration, "duration", "m", 0, "duration in minutes when --end is omitted")
	addCmd.Flags().StringVar(&addDescription, "description", "", "description")
	addCmd.Flags().StringVarP(&addType, "type", "t", "event", "event type")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "priority")
	addCmd.Flags().StringSliceVar(&addTags, "tag", nil, "tags")
	addCmd.Flags().StringVarP(&addAssignee, "assignee", "a", "", "household member")
	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("start")
}
