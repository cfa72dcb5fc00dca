package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, overridden with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "homebase %s (%s, built %s, %s)\n", Version, Commit, BuildDate, runtime.Version())
		if app := GetApp(); app != nil {
			_, _ = fmt.Fprintf(out, "household: %s\n", app.ContextID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
