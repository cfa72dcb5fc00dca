package domain

import (
	"strings"
	"time"
)

// ItemType is the subtype of a schedulable item.
type ItemType string

const (
	ItemTypeTask      ItemType = "task"
	ItemTypeMilestone ItemType = "milestone"
	ItemTypeGoal      ItemType = "goal"
	ItemTypeProject   ItemType = "project"
	ItemTypeSOP       ItemType = "sop"
)

// ParseItemType validates an item type name.
func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case ItemTypeTask, ItemTypeMilestone, ItemTypeGoal, ItemTypeProject, ItemTypeSOP:
		return t, nil
	default:
		return "", NewValidationError("type", "unknown item type "+s)
	}
}

// Kind maps the item type onto the agenda entry kind.
func (t ItemType) Kind() Kind {
	switch t {
	case ItemTypeMilestone:
		return KindMilestone
	case ItemTypeGoal:
		return KindGoal
	case ItemTypeProject:
		return KindProject
	case ItemTypeSOP:
		return KindSOP
	default:
		return KindTask
	}
}

// Well-known tags.
const (
	TagArchived = "archived"
	TagInbox    = "inbox"
)

// CalendarEvent is a scheduled record from the calendar feed.
// Date and times are kept as strings as received; normalization parses them.
type CalendarEvent struct {
	ID           string    `json:"id"`
	ContextID    string    `json:"contextId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Date         string    `json:"date"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	Duration     int       `json:"duration"`
	Type         string    `json:"type"`
	Color        string    `json:"color,omitempty"`
	Domain       string    `json:"domain,omitempty"`
	Priority     string    `json:"priority,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	AssignedTo   string    `json:"assignedTo,omitempty"`
	Status       string    `json:"status,omitempty"`
	SourceItemID string    `json:"sourceItemId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Clone returns a deep copy.
func (e CalendarEvent) Clone() CalendarEvent {
	e.Tags = cloneStrings(e.Tags)
	return e
}

// SchedulableItem is a task, milestone, goal, project or SOP that can be placed on a slot.
type SchedulableItem struct {
	ID                string    `json:"id"`
	ContextID         string    `json:"contextId"`
	Type              ItemType  `json:"type"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	EstimatedDuration int       `json:"estimatedDuration"`
	Priority          string    `json:"priority"`
	DueDate           string    `json:"dueDate,omitempty"`
	ScheduledDate     string    `json:"scheduledDate,omitempty"`
	ScheduledTime     string    `json:"scheduledTime,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
	AssignedTo        string    `json:"assignedTo,omitempty"`
	GoalID            string    `json:"goalId,omitempty"`
	ProjectID         string    `json:"projectId,omitempty"`
	MilestoneID       string    `json:"milestoneId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Clone returns a deep copy.
func (i SchedulableItem) Clone() SchedulableItem {
	i.Tags = cloneStrings(i.Tags)
	return i
}

// IsScheduled reports whether the item already carries a slot.
func (i SchedulableItem) IsScheduled() bool {
	return i.ScheduledDate != "" && i.ScheduledTime != ""
}

// IsArchived reports whether the item carries the archived tag.
func (i SchedulableItem) IsArchived() bool {
	return containsFold(i.Tags, TagArchived)
}

// HasTag reports whether the item carries tag (case-insensitive).
func (i SchedulableItem) HasTag(tag string) bool {
	return containsFold(i.Tags, tag)
}

// Validate rejects items that cannot enter the pipeline.
func (i SchedulableItem) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return NewValidationError("id", "item id is required")
	}
	if strings.TrimSpace(i.Title) == "" {
		return NewValidationError("title", "item title is required")
	}
	if _, err := ParseItemType(string(i.Type)); err != nil {
		return err
	}
	if i.EstimatedDuration < 0 {
		return NewValidationError("estimatedDuration", "must not be negative")
	}
	return nil
}

// AddTag returns tags with tag appended unless already present.
func AddTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags)+1)
	seen := make(map[string]struct{}, len(tags)+1)
	for _, t := range append(cloneStrings(tags), tag) {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// EventPatch holds the event fields an update may change. Nil fields are left untouched.
type EventPatch struct {
	Title     *string
	Date      *string
	StartTime *string
	EndTime   *string
	Duration  *int
	Status    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Date == nil && p.StartTime == nil && p.EndTime == nil &&
		p.Duration == nil && p.Status == nil
}

// ItemPatch holds the item fields an update may change. Nil fields are left untouched.
type ItemPatch struct {
	DueDate       *string
	ScheduledDate *string
	ScheduledTime *string
	Tags          *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.DueDate == nil && p.ScheduledDate == nil && p.ScheduledTime == nil && p.Tags == nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
