package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/commands"
	"github.com/spf13/cobra"
)

var quickCmd = &cobra.Command{
	Use:   "quick <item-id>",
	Short: "Schedule an item at the next half hour",
	Long: `Schedule an item at half past the current hour, or at the next full
hour once the half hour has passed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		result, err := app.QuickScheduleHandler.Handle(cmd.Context(), commands.QuickScheduleCommand{
			ContextID: app.ContextID,
			ItemID:    args[0],
		})
		if err != nil {
			return fmt.Errorf("failed to schedule item: %w", err)
		}
		app.AfterWrite(cmd.Context())

		printScheduled(cmd, result)
		return nil
	},
}
