package item

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/commands"
	"github.com/spf13/cobra"
)

var (
	addType        string
	addDescription string
	addDuration    int
	addPriority    string
	addDue         string
	addTags        []string
	addAssignee    string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add an item",
	Long: `Add a schedulable item.

Examples:
  homebase item add "Buy groceries" --priority high --due 2025-03-05
  homebase item add "Summer vacation" --type goal --assignee mom
  homebase item add "Call plumber" --tag inbox`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		result, err := app.CreateItemHandler.Handle(cmd.Context(), commands.CreateItemCommand{
			ContextID:         app.ContextID,
			Type:              addType,
			Title:             strings.Join(args, " "),
			Description:       addDescription,
			EstimatedDuration: addDuration,
			Priority:          addPriority,
			DueDate:           addDue,
			Tags:              addTags,
			AssignedTo:        addAssignee,
		})
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		app.AfterWrite(cmd.Context())

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added item %s\n", result.ItemID)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addType, "type", "t", "task", "item type (task, milestone, goal, project, sop)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "description")
	addCmd.Flags().IntVarP(&addDuration, "duration", "m", 0, "estimated duration in minutes")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "priority (low, medium, high, critical)")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	addCmd.Flags().StringSliceVar(&addTags, "tag", nil, "tags")
	addCmd.Flags().StringVarP(&addAssignee, "assignee", "a", "", "household member")
}
