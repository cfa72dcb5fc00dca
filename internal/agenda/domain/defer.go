package domain

import (
	"strings"
	"time"
)

// DeferOption is one entry of the fixed defer menu.
type DeferOption string

const (
	DeferLaterToday DeferOption = "later_today"
	DeferTomorrow   DeferOption = "tomorrow"
	DeferThisFriday DeferOption = "this_friday"
	DeferNextMonday DeferOption = "next_monday"
	DeferArchive    DeferOption = "archive"
)

const (
	laterTodayHour = 18
	morningHour    = 9
)

// DeferOptions lists the menu in display order.
func DeferOptions() []DeferOption {
	return []DeferOption{DeferLaterToday, DeferTomorrow, DeferThisFriday, DeferNextMonday, DeferArchive}
}

// ParseDeferOption accepts the option name with either dashes, spaces or underscores.
func ParseDeferOption(s string) (DeferOption, error) {
	normalized := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, opt := range DeferOptions() {
		if string(opt) == normalized {
			return opt, nil
		}
	}
	return "", NewValidationError("option", "unknown defer option "+s)
}

// ResolveDueDate computes the new due date for a time-based option.
// Archive has no due date and returns false.
//
// later_today is 18:00, or the next full hour once 18:00 has passed.
// this_friday is today at 09:00 on a Friday that has not reached 09:00 yet,
// otherwise the next Friday. next_monday is always in a following week.
func (o DeferOption) ResolveDueDate(now time.Time) (time.Time, bool) {
	today := StartOfDay(now)
	switch o {
	case DeferLaterToday:
		target := today.Add(laterTodayHour * time.Hour)
		if !now.Before(target) {
			target = atHour(today, now.Hour()+1)
		}
		return target, true
	case DeferTomorrow:
		return atHour(today.AddDate(0, 0, 1), morningHour), true
	case DeferThisFriday:
		days := daysUntil(now.Weekday(), time.Friday)
		if days == 0 && now.Hour() >= morningHour {
			days = 7
		}
		return atHour(today.AddDate(0, 0, days), morningHour), true
	case DeferNextMonday:
		days := daysUntil(now.Weekday(), time.Monday)
		if days == 0 {
			days = 7
		}
		return atHour(today.AddDate(0, 0, days), morningHour), true
	default:
		return time.Time{}, false
	}
}

func daysUntil(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}

func atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}
