package services

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// Filters is a conjunction of sidebar predicates. Empty sets and false flags
// mean "no restriction".
type Filters struct {
	Priorities []domain.Priority
	AssignedTo []string
	DueToday   bool
	Overdue    bool
	Search     string
}

// IsZero reports whether no predicate is active.
func (f Filters) IsZero() bool {
	return len(f.Priorities) == 0 && len(f.AssignedTo) == 0 && !f.DueToday && !f.Overdue &&
		strings.TrimSpace(f.Search) == ""
}

// Validate rejects filter combinations that can never match.
func (f Filters) Validate() error {
	if f.DueToday && f.Overdue {
		return domain.NewValidationError("filters", "dueToday and overdue are mutually exclusive")
	}
	for _, p := range f.Priorities {
		if _, err := domain.ParsePriority(string(p)); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFilters returns the entries matching every active predicate, in input order.
func ApplyFilters(entries []domain.Entry, f Filters, now time.Time) ([]domain.Entry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if len(f.Priorities) > 0 && !containsPriority(f.Priorities, e.Priority) {
			continue
		}
		if len(f.AssignedTo) > 0 && !containsString(f.AssignedTo, e.AssignedTo) {
			continue
		}
		if f.DueToday && !e.IsDueToday(now) {
			continue
		}
		if f.Overdue && !e.IsOverdue(now) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func containsPriority(set []domain.Priority, p domain.Priority) bool {
	for _, s := range set {
		if strings.EqualFold(string(s), string(p)) {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
