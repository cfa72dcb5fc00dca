package services

import (
	"sort"
	"strings"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// SortStrategy selects the comparator used by the AgendaBuilder.
type SortStrategy string

const (
	// SortChronological orders the day timeline: scheduled entries by date and
	// start, then unscheduled entries ranked intelligently.
	SortChronological SortStrategy = "chronological"
	// SortIntelligent ranks by priority, due date, kind and duration.
	SortIntelligent SortStrategy = "intelligent"
)

// ParseSortStrategy validates a strategy name.
func ParseSortStrategy(s string) (SortStrategy, error) {
	switch st := SortStrategy(strings.ToLower(strings.TrimSpace(s))); st {
	case SortChronological, SortIntelligent:
		return st, nil
	case "":
		return SortChronological, nil
	default:
		return "", domain.NewValidationError("sort", "unknown sort strategy "+s)
	}
}

// AgendaBuilder merges normalized entries into one ordered agenda.
type AgendaBuilder struct{}

// NewAgendaBuilder creates an agenda builder.
func NewAgendaBuilder() *AgendaBuilder {
	return &AgendaBuilder{}
}

// Build concatenates scheduled and unscheduled entries, drops duplicates by
// source id (first occurrence wins) and sorts stably with the given strategy.
// Callers are expected to have removed already-scheduled items from unscheduled.
func (b *AgendaBuilder) Build(scheduled, unscheduled []domain.Entry, strategy SortStrategy) []domain.Entry {
	merged := make([]domain.Entry, 0, len(scheduled)+len(unscheduled))
	merged = append(merged, scheduled...)
	merged = append(merged, unscheduled...)
	return b.Sort(Dedupe(merged), strategy)
}

// Sort returns a stably sorted copy of entries.
func (b *AgendaBuilder) Sort(entries []domain.Entry, strategy SortStrategy) []domain.Entry {
	sorted := make([]domain.Entry, len(entries))
	copy(sorted, entries)

	less := intelligentLess
	if strategy != SortIntelligent {
		less = chronologicalLess
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// Dedupe keeps the first entry per source id. Entries without a source id are kept.
func Dedupe(entries []domain.Entry) []domain.Entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		id := e.SourceID()
		if id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, e)
	}
	return out
}

func chronologicalLess(a, b domain.Entry) bool {
	if a.IsScheduled() != b.IsScheduled() {
		return a.IsScheduled()
	}
	if !a.IsScheduled() {
		return intelligentLess(a, b)
	}
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	aStart, aEnd, aErr := a.Interval.Bounds()
	bStart, bEnd, bErr := b.Interval.Bounds()
	if aErr != nil || bErr != nil {
		return false
	}
	if aStart != bStart {
		return aStart < bStart
	}
	return aEnd < bEnd
}

func intelligentLess(a, b domain.Entry) bool {
	if ar, br := a.Priority.Rank(), b.Priority.Rank(); ar != br {
		return ar > br
	}

	// Overdue entries are simply the earliest due dates; entries without one go last.
	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate == nil && b.DueDate != nil:
		return false
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
		return a.DueDate.Before(*b.DueDate)
	}

	if ar, br := a.Kind.Rank(), b.Kind.Rank(); ar != br {
		return ar > br
	}
	return a.EstimatedDurationMinutes < b.EstimatedDurationMinutes
}
