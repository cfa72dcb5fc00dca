package queries

import (
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// AgendaView is a rendered day or week agenda.
type AgendaView struct {
	ContextID  string                `json:"contextId"`
	View       string                `json:"view"`
	StartDate  string                `json:"startDate"`
	EndDate    string                `json:"endDate"`
	Strategy   services.SortStrategy `json:"strategy"`
	Entries    []domain.Entry        `json:"entries"`
	Failed     []string              `json:"failedSources,omitempty"`
	Generation uint64                `json:"generation"`
	Cached     bool                  `json:"-"`
}

// DayEntries is the scheduled part of one date.
type DayEntries struct {
	Date    string
	Entries []domain.Entry
}

// Scheduled returns the entries that occupy a slot, transitions included.
func (v AgendaView) Scheduled() []domain.Entry {
	out := []domain.Entry{}
	for _, e := range v.Entries {
		if e.IsScheduled() {
			out = append(out, e)
		}
	}
	return out
}

// Unscheduled returns the entries without a slot.
func (v AgendaView) Unscheduled() []domain.Entry {
	out := []domain.Entry{}
	for _, e := range v.Entries {
		if !e.IsScheduled() {
			out = append(out, e)
		}
	}
	return out
}

// ByDate groups scheduled entries per date, one group for every date in the
// view even when it is empty.
func (v AgendaView) ByDate() []DayEntries {
	var days []DayEntries
	index := map[string]int{}
	start, err := domain.ParseDate(v.StartDate, time.UTC)
	if err != nil {
		return nil
	}
	for d := start; d.Format(domain.DateLayout) <= v.EndDate; d = d.AddDate(0, 0, 1) {
		date := d.Format(domain.DateLayout)
		index[date] = len(days)
		days = append(days, DayEntries{Date: date, Entries: []domain.Entry{}})
	}
	for _, e := range v.Scheduled() {
		if i, ok := index[e.Date]; ok {
			days[i].Entries = append(days[i].Entries, e)
		}
	}
	return days
}
