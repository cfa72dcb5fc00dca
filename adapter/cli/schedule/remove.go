package schedule

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/commands"
	"github.com/spf13/cobra"
)

var (
	removeEventID string
	removeItemID  string
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Take a scheduled event off the calendar",
	Long: `Delete a scheduled event and return its item to the sidebar.

Examples:
  homebase schedule remove --item 3f2c...
  homebase schedule remove --event 9a1b...`,
	Aliases: []string{"unschedule", "rm"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		if removeEventID == "" && removeItemID == "" {
			return errors.New("one of --event or --item is required")
		}

		result, err := app.UnscheduleItemHandler.Handle(cmd.Context(), commands.UnscheduleItemCommand{
			ContextID: app.ContextID,
			EventID:   removeEventID,
			ItemID:    removeItemID,
		})
		if err != nil {
			return fmt.Errorf("failed to unschedule: %w", err)
		}
		app.AfterWrite(cmd.Context())

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed event %s\n", result.EventID)
		return nil
	},
}

func init() {
	removeCmd.Flags().StringVar(&removeEventID, "event", "", "event ID")
	removeCmd.Flags().StringVar(&removeItemID, "item", "", "source item ID")
}
