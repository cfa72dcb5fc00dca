package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// DefaultDurationMinutes is used when an item carries no estimate.
const DefaultDurationMinutes = 30

// UnscheduledHarmonyScore is the fixed score of entries without a slot.
const UnscheduledHarmonyScore = 50

// Normalizer converts calendar events and schedulable items into agenda entries.
// Bad records are logged and skipped; they never abort the batch.
type Normalizer struct {
	clock           domain.Clock
	logger          *slog.Logger
	defaultDuration int
}

// NewNormalizer creates a normalizer.
func NewNormalizer(clock domain.Clock, logger *slog.Logger, defaultDuration int) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultDuration <= 0 {
		defaultDuration = DefaultDurationMinutes
	}
	return &Normalizer{
		clock:           clock,
		logger:          logger,
		defaultDuration: defaultDuration,
	}
}

// NormalizeEvents converts events into scheduled entries and scores them as a batch.
func (n *Normalizer) NormalizeEvents(ctx context.Context, source string, events []domain.CalendarEvent) []domain.Entry {
	now := n.clock.Now()
	entries := make([]domain.Entry, 0, len(events))
	for _, ev := range events {
		entry, err := n.normalizeEvent(ev, now)
		if err != nil {
			n.logger.WarnContext(ctx, "skipping calendar event",
				"source", source,
				"record_id", ev.ID,
				"error", err,
			)
			continue
		}
		entries = append(entries, entry)
	}
	return ScoreHarmony(entries)
}

// NormalizeUnscheduled converts items into entries without an interval.
func (n *Normalizer) NormalizeUnscheduled(ctx context.Context, source string, items []domain.SchedulableItem) []domain.Entry {
	now := n.clock.Now()
	entries := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		entry, err := n.normalizeItem(item, now)
		if err != nil {
			n.logger.WarnContext(ctx, "skipping schedulable item",
				"source", source,
				"record_id", item.ID,
				"error", err,
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (n *Normalizer) normalizeEvent(ev domain.CalendarEvent, now time.Time) (domain.Entry, error) {
	if strings.TrimSpace(ev.ID) == "" {
		return domain.Entry{}, domain.NewValidationError("id", "event id is required")
	}
	date, err := domain.ParseDate(ev.Date, now.Location())
	if err != nil {
		return domain.Entry{}, err
	}

	iv := domain.Interval{Start: strings.TrimSpace(ev.StartTime), End: strings.TrimSpace(ev.EndTime)}
	if iv.End == "" {
		if ev.Duration <= 0 {
			return domain.Entry{}, domain.NewValidationError("duration", "event has neither end time nor duration")
		}
		if iv.End, err = domain.AddMinutes(iv.Start, ev.Duration); err != nil {
			return domain.Entry{}, err
		}
	}
	if err := iv.Validate(); err != nil {
		return domain.Entry{}, err
	}
	duration, _ := iv.DurationMinutes()

	lifeDomain, ok := domain.ParseLifeDomain(ev.Domain)
	if !ok {
		lifeDomain = domain.ClassifyEventDomain(ev.Title)
	}

	src := ev.Clone()
	return domain.Entry{
		ID:                       ev.ID,
		Kind:                     domain.KindEvent,
		Title:                    ev.Title,
		Description:              ev.Description,
		Date:                     date.Format(domain.DateLayout),
		Interval:                 &iv,
		Domain:                   lifeDomain,
		Priority:                 domain.PriorityOrDefault(ev.Priority),
		Status:                   domain.DeriveStatusOn(date, iv, now),
		Energy:                   domain.DeriveEnergy(iv.Start),
		Source:                   &domain.SourceRef{Event: &src},
		EstimatedDurationMinutes: duration,
		AssignedTo:               ev.AssignedTo,
		Tags:                     append([]string(nil), ev.Tags...),
	}, nil
}

func (n *Normalizer) normalizeItem(item domain.SchedulableItem, now time.Time) (domain.Entry, error) {
	if err := item.Validate(); err != nil {
		return domain.Entry{}, err
	}

	var due *time.Time
	if strings.TrimSpace(item.DueDate) != "" {
		d, err := domain.ParseDueDate(item.DueDate, now.Location())
		if err != nil {
			return domain.Entry{}, err
		}
		due = &d
	}

	duration := item.EstimatedDuration
	if duration == 0 {
		duration = n.defaultDuration
	}

	src := item.Clone()
	entry := domain.Entry{
		ID:                       domain.UnscheduledIDPrefix + item.ID,
		Kind:                     item.Type.Kind(),
		Title:                    item.Title,
		Description:              item.Description,
		Domain:                   domain.ClassifyTaskDomain(item.Tags),
		Priority:                 domain.PriorityOrDefault(item.Priority),
		Energy:                   domain.EnergyMedium,
		HarmonyScore:             UnscheduledHarmonyScore,
		Source:                   &domain.SourceRef{Item: &src},
		EstimatedDurationMinutes: duration,
		DueDate:                  due,
		AssignedTo:               item.AssignedTo,
		Tags:                     append([]string(nil), item.Tags...),
	}
	entry.Status = entry.StatusAt(now)
	return entry, nil
}
