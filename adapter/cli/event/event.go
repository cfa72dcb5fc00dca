package event

import (
	"github.com/spf13/cobra"
)

// Cmd is the event command group
var Cmd = &cobra.Command{
	Use:   "event",
	Short: "Manage calendar events",
}

func init() {
	Cmd.AddCommand(addCmd)
}
