package schedule

import (
	"github.com/spf13/cobra"
)

// Cmd is the schedule command group
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Place, defer and remove items on the calendar",
	Long:  `Drop unscheduled items onto time slots, defer them, or take them off the calendar again.`,
}

func init() {
	Cmd.AddCommand(dropCmd)
	Cmd.AddCommand(quickCmd)
	Cmd.AddCommand(deferCmd)
	Cmd.AddCommand(removeCmd)
}
