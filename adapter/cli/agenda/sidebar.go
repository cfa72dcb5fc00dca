package agenda

import (
	"fmt"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/spf13/cobra"
)

var (
	filterPriorities []string
	filterAssignees  []string
	filterDueToday   bool
	filterOverdue    bool
	filterSearch     string
)

var sidebarCmd = &cobra.Command{
	Use:   "sidebar",
	Short: "List items waiting to be scheduled",
	Long: `List unscheduled items split into the inbox and suggestions.

Examples:
  homebase agenda sidebar
  homebase agenda sidebar --priority high,critical --assignee mom
  homebase agenda sidebar --overdue --search groceries`,
	Aliases: []string{"unscheduled"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		if err := checkOutput(); err != nil {
			return err
		}

		filters, err := buildFilters()
		if err != nil {
			return err
		}

		view, err := app.GetSidebarHandler.Handle(cmd.Context(), queries.GetSidebarQuery{
			ContextID: app.ContextID,
			Filters:   filters,
		})
		if err != nil {
			return fmt.Errorf("failed to load sidebar: %w", err)
		}

		if outputFormat == cli.OutputJSON {
			return cli.WriteJSON(cmd.OutOrStdout(), view)
		}
		cli.RenderSidebar(cmd.OutOrStdout(), view)
		return nil
	},
}

func buildFilters() (services.Filters, error) {
	filters := services.Filters{
		AssignedTo: filterAssignees,
		DueToday:   filterDueToday,
		Overdue:    filterOverdue,
		Search:     filterSearch,
	}
	for _, raw := range filterPriorities {
		p, err := domain.ParsePriority(raw)
		if err != nil {
			return services.Filters{}, fmt.Errorf("invalid priority %q: %w", raw, err)
		}
		filters.Priorities = append(filters.Priorities, p)
	}
	return filters, nil
}

func init() {
	sidebarCmd.Flags().StringSliceVarP(&filterPriorities, "priority", "p", nil, "only these priorities")
	sidebarCmd.Flags().StringSliceVarP(&filterAssignees, "assignee", "a", nil, "only items assigned to these members")
	sidebarCmd.Flags().BoolVar(&filterDueToday, "due-today", false, "only items due today")
	sidebarCmd.Flags().BoolVar(&filterOverdue, "overdue", false, "only overdue items")
	sidebarCmd.Flags().StringVarP(&filterSearch, "search", "s", "", "case-insensitive text in title or description")
}
