package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/felixgeelhaar/homebase/pkg/observability"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database, cache and broker connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		overall := app.Health.GetOverallHealth(cmd.Context())

		names := make([]string, 0, len(overall.Checks))
		for name := range overall.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		tbl := uitable.New()
		tbl.Separator = "  "
		for _, name := range names {
			check := overall.Checks[name]
			tbl.AddRow(name, statusColor(check.Status).Sprint(check.Status), check.Message)
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, tbl)
		_, _ = fmt.Fprintf(out, "overall: %s\n", statusColor(overall.Status).Sprint(overall.Status))

		if overall.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func statusColor(s observability.HealthStatus) *color.Color {
	switch s {
	case observability.HealthStatusHealthy:
		return color.New(color.FgGreen)
	case observability.HealthStatusDegraded:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
