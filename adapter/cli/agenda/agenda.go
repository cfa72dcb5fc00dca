package agenda

import (
	"fmt"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/spf13/cobra"
)

// Cmd is the agenda command group
var Cmd = &cobra.Command{
	Use:   "agenda",
	Short: "Show the household agenda",
	Long: `Render the merged day or week agenda and the sidebar of items
waiting to be scheduled.`,
}

var (
	outputFormat string
	strategy     string
)

func init() {
	Cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", cli.OutputTable, "output format (table, json)")
	Cmd.PersistentFlags().StringVar(&strategy, "strategy", "", "sort strategy (chronological, intelligent)")

	Cmd.AddCommand(dayCmd)
	Cmd.AddCommand(weekCmd)
	Cmd.AddCommand(sidebarCmd)
}

func checkOutput() error {
	switch outputFormat {
	case cli.OutputTable, cli.OutputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
