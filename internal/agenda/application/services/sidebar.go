package services

import (
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// Sidebar is the unscheduled feed split into its two sections.
type Sidebar struct {
	Inbox     []domain.Entry `json:"inbox"`
	Suggested []domain.Entry `json:"suggested"`
}

// Total returns the number of entries across both sections.
func (s Sidebar) Total() int {
	return len(s.Inbox) + len(s.Suggested)
}

// SplitSidebar places every entry in exactly one section, preserving order.
// Archived entries are dropped; the inbox tag wins over any other tag.
func SplitSidebar(entries []domain.Entry) Sidebar {
	sb := Sidebar{
		Inbox:     []domain.Entry{},
		Suggested: []domain.Entry{},
	}
	for _, e := range entries {
		switch {
		case e.HasTag(domain.TagArchived):
		case e.HasTag(domain.TagInbox):
			sb.Inbox = append(sb.Inbox, e)
		default:
			sb.Suggested = append(sb.Suggested, e)
		}
	}
	return sb
}
