package schedule

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/commands"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/spf13/cobra"
)

var deferOption string

var deferCmd = &cobra.Command{
	Use:   "defer <item-id>",
	Short: "Push an item's due date or archive it",
	Long: `Defer an item to one of the fixed options:
  later_today, tomorrow, this_friday, next_monday, archive

Examples:
  homebase schedule defer 3f2c... --to tomorrow
  homebase schedule defer 3f2c... --to archive`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		option, err := domain.ParseDeferOption(deferOption)
		if err != nil {
			return err
		}

		result, err := app.DeferItemHandler.Handle(cmd.Context(), commands.DeferItemCommand{
			ContextID: app.ContextID,
			ItemID:    args[0],
			Option:    option,
		})
		if err != nil {
			return fmt.Errorf("failed to defer item: %w", err)
		}
		app.AfterWrite(cmd.Context())

		out := cmd.OutOrStdout()
		if result.Option == domain.DeferArchive {
			_, _ = fmt.Fprintf(out, "Archived %s\n", result.ItemID)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Deferred %s to %s\n", result.ItemID, result.DueDate)
		if len(result.Tags) > 0 {
			_, _ = fmt.Fprintf(out, "  Tags: %s\n", strings.Join(result.Tags, ", "))
		}
		return nil
	},
}

func init() {
	deferCmd.Flags().StringVar(&deferOption, "to", string(domain.DeferTomorrow), "defer option")
}
