package domain

import (
	"strings"
	"time"
)

// ID prefixes for synthetic entries so they never collide with source ids.
const (
	UnscheduledIDPrefix = "unscheduled-"
	TransitionIDPrefix  = "transition-"
)

// Kind is the discriminant of an agenda entry.
type Kind string

const (
	KindTask       Kind = "task"
	KindMilestone  Kind = "milestone"
	KindGoal       Kind = "goal"
	KindProject    Kind = "project"
	KindSOP        Kind = "sop"
	KindEvent      Kind = "event"
	KindTransition Kind = "transition"
	KindBuffer     Kind = "buffer"
)

// Rank orders schedulable kinds for the intelligent ranking (higher first).
func (k Kind) Rank() int {
	switch k {
	case KindTask:
		return 5
	case KindMilestone:
		return 4
	case KindGoal:
		return 3
	case KindProject:
		return 2
	case KindSOP:
		return 1
	default:
		return 0
	}
}

// IsSynthetic reports whether entries of this kind are generated rather than sourced.
func (k Kind) IsSynthetic() bool {
	return k == KindTransition || k == KindBuffer
}

// LifeDomain is the coarse life-area tag used for grouping and transitions.
type LifeDomain string

const (
	DomainWork       LifeDomain = "work"
	DomainFamily     LifeDomain = "family"
	DomainPersonal   LifeDomain = "personal"
	DomainHealth     LifeDomain = "health"
	DomainHome       LifeDomain = "home"
	DomainTransition LifeDomain = "transition"
)

// ParseLifeDomain returns the domain for s, or false if s is not a user-facing domain.
func ParseLifeDomain(s string) (LifeDomain, bool) {
	switch d := LifeDomain(strings.ToLower(strings.TrimSpace(s))); d {
	case DomainWork, DomainFamily, DomainPersonal, DomainHealth, DomainHome:
		return d, true
	default:
		return "", false
	}
}

// Label returns the capitalised domain name.
func (d LifeDomain) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Priority is the urgency of an entry.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ParsePriority parses a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", NewValidationError("priority", "unknown priority "+s)
	}
}

// PriorityOrDefault parses s and falls back to medium.
func PriorityOrDefault(s string) Priority {
	p, err := ParsePriority(s)
	if err != nil {
		return PriorityMedium
	}
	return p
}

// Rank returns critical=4 through low=1; unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Color is the presentation color of events created from items with this priority.
func (p Priority) Color() string {
	switch p {
	case PriorityCritical:
		return "#dc2626"
	case PriorityHigh:
		return "#ea580c"
	case PriorityLow:
		return "#6b7280"
	default:
		return "#2563eb"
	}
}

// Status is the time status of an entry relative to the clock.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCurrent   Status = "current"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// Energy is the expected energy level for the time of day.
type Energy string

const (
	EnergyHigh   Energy = "high"
	EnergyMedium Energy = "medium"
	EnergyLow    Energy = "low"
)

// SourceRef points back at the record an entry was built from.
// Exactly one of Event and Item is set.
type SourceRef struct {
	Event *CalendarEvent   `json:"event,omitempty"`
	Item  *SchedulableItem `json:"item,omitempty"`
}

// ID returns the identity used for de-duplication. Events created from an
// item resolve to that item so the item and its event collapse into one entry.
func (s *SourceRef) ID() string {
	switch {
	case s == nil:
		return ""
	case s.Event != nil && s.Event.SourceItemID != "":
		return s.Event.SourceItemID
	case s.Event != nil:
		return s.Event.ID
	case s.Item != nil:
		return s.Item.ID
	default:
		return ""
	}
}

// Entry is the uniform agenda record produced by normalization.
type Entry struct {
	ID                       string     `json:"id"`
	Kind                     Kind       `json:"kind"`
	Title                    string     `json:"title"`
	Description              string     `json:"description,omitempty"`
	Date                     string     `json:"date,omitempty"`
	Interval                 *Interval  `json:"interval,omitempty"`
	Domain                   LifeDomain `json:"domain"`
	Priority                 Priority   `json:"priority"`
	Status                   Status     `json:"status"`
	Energy                   Energy     `json:"energy"`
	HarmonyScore             int        `json:"harmonyScore"`
	Source                   *SourceRef `json:"source,omitempty"`
	EstimatedDurationMinutes int        `json:"estimatedDurationMinutes"`
	DueDate                  *time.Time `json:"dueDate,omitempty"`
	AssignedTo               string     `json:"assignedTo,omitempty"`
	Tags                     []string   `json:"tags,omitempty"`
}

// IsScheduled reports whether the entry occupies a time slot.
func (e Entry) IsScheduled() bool {
	return e.Interval != nil
}

// SourceID returns the de-duplication identity, empty for synthetic entries.
func (e Entry) SourceID() string {
	return e.Source.ID()
}

// HasTag reports whether the entry carries tag (case-insensitive).
func (e Entry) HasTag(tag string) bool {
	return containsFold(e.Tags, tag)
}

// IsOverdue reports whether the due date falls before the current calendar date.
func (e Entry) IsOverdue(now time.Time) bool {
	if e.DueDate == nil {
		return false
	}
	return e.DueDate.Before(StartOfDay(now))
}

// IsDueToday reports whether the due date falls on now's calendar date.
func (e Entry) IsDueToday(now time.Time) bool {
	if e.DueDate == nil {
		return false
	}
	return SameDay(now, *e.DueDate)
}

// StatusAt derives the entry's status at now. Entries with a slot compare
// their date and interval against the clock; unscheduled entries are overdue
// once their due date has passed and upcoming otherwise.
func (e Entry) StatusAt(now time.Time) Status {
	if e.Interval == nil {
		if e.IsOverdue(now) {
			return StatusOverdue
		}
		return StatusUpcoming
	}
	date, err := ParseDate(e.Date, now.Location())
	if err != nil {
		return StatusUpcoming
	}
	return DeriveStatusOn(date, *e.Interval, now)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
