package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/gosuri/uitable"
)

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderAgenda writes an agenda view grouped by date, followed by the
// unscheduled entries.
func RenderAgenda(w io.Writer, view *queries.AgendaView) {
	title := fmt.Sprintf("Agenda %s", view.StartDate)
	if view.EndDate != view.StartDate {
		title = fmt.Sprintf("Agenda %s to %s", view.StartDate, view.EndDate)
	}
	_, _ = fmt.Fprintln(w, bold.Sprint(title))
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 60))

	days := view.ByDate()
	if len(days) == 0 {
		_, _ = fmt.Fprintln(w, "\n  Nothing scheduled.")
	}
	for _, day := range days {
		_, _ = fmt.Fprintf(w, "\n%s\n", bold.Sprint(weekdayLabel(day.Date)))
		tbl := uitable.New()
		tbl.Separator = "  "
		for _, e := range day.Entries {
			tbl.AddRow(intervalLabel(e), statusGlyph(e.Status), entryTitle(e), e.Domain, e.AssignedTo)
		}
		_, _ = fmt.Fprintln(w, tbl)
	}

	if unscheduled := view.Unscheduled(); len(unscheduled) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", bold.Sprint("Unscheduled"))
		RenderEntries(w, unscheduled)
	}
	renderFooter(w, view.Failed, view.Generation, view.Cached)
}

// RenderSidebar writes the inbox and suggested sections.
func RenderSidebar(w io.Writer, view *queries.SidebarView) {
	_, _ = fmt.Fprintf(w, "%s (%d)\n", bold.Sprint("Inbox"), len(view.Sidebar.Inbox))
	RenderEntries(w, view.Sidebar.Inbox)
	_, _ = fmt.Fprintf(w, "\n%s (%d)\n", bold.Sprint("Suggested"), len(view.Sidebar.Suggested))
	RenderEntries(w, view.Sidebar.Suggested)
	renderFooter(w, view.Failed, view.Generation, view.Cached)
}

// RenderEntries writes unscheduled entries as a table keyed by source item ID.
func RenderEntries(w io.Writer, entries []domain.Entry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint("  (empty)"))
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("ID", "KIND", "PRIORITY", "TITLE", "DUE", "MIN")
	for _, e := range entries {
		due := ""
		if e.DueDate != nil {
			due = e.DueDate.Format(domain.DateLayout)
		}
		tbl.AddRow(sourceID(e), e.Kind, priorityColor(e.Priority).Sprint(e.Priority), e.Title, due, e.EstimatedDurationMinutes)
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func renderFooter(w io.Writer, failed []string, generation uint64, cached bool) {
	if len(failed) > 0 {
		_, _ = fmt.Fprintln(w, color.New(color.FgYellow).Sprintf("\nUnavailable sources: %s", strings.Join(failed, ", ")))
	}
	if verbose {
		_, _ = fmt.Fprintln(w, faint.Sprintf("generation %d, cached %t", generation, cached))
	}
}

func sourceID(e domain.Entry) string {
	if e.Source != nil {
		return e.Source.ID()
	}
	return e.ID
}

func entryTitle(e domain.Entry) string {
	switch {
	case e.Kind.IsSynthetic():
		return faint.Sprint(e.Title)
	case e.Status == domain.StatusCompleted:
		return faint.Sprint(e.Title)
	default:
		return e.Title
	}
}

func intervalLabel(e domain.Entry) string {
	if e.Interval == nil {
		return "--:--"
	}
	return e.Interval.Start + "-" + e.Interval.End
}

func weekdayLabel(date string) string {
	t, err := domain.ParseDate(date, nil)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}

func statusGlyph(s domain.Status) string {
	switch s {
	case domain.StatusCompleted:
		return "[x]"
	case domain.StatusCurrent:
		return color.New(color.FgGreen).Sprint("[>]")
	case domain.StatusOverdue:
		return color.New(color.FgRed).Sprint("[!]")
	default:
		return "[ ]"
	}
}

func priorityColor(p domain.Priority) *color.Color {
	switch p {
	case domain.PriorityCritical:
		return color.New(color.FgRed, color.Bold)
	case domain.PriorityHigh:
		return color.New(color.FgYellow)
	case domain.PriorityLow:
		return faint
	default:
		return color.New(color.Reset)
	}
}
