package item

import (
	"github.com/spf13/cobra"
)

// Cmd is the item command group
var Cmd = &cobra.Command{
	Use:   "item",
	Short: "Manage schedulable items",
	Long:  `Add tasks, milestones, goals, projects and routines that can be dropped onto the calendar.`,
}

func init() {
	Cmd.AddCommand(addCmd)
}
