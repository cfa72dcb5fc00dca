package domain

import (
	"strings"
	"time"
)

// keywordGroup maps title keywords to a life domain.
type keywordGroup struct {
	domain   LifeDomain
	keywords []string
}

// eventKeywordGroups is evaluated in order; the first group with a matching keyword wins.
var eventKeywordGroups = []keywordGroup{
	{domain: DomainWork, keywords: []string{"work", "meeting", "call"}},
	{domain: DomainFamily, keywords: []string{"family", "kid", "school"}},
	{domain: DomainHome, keywords: []string{"meal", "dinner", "lunch"}},
	{domain: DomainHealth, keywords: []string{"exercise", "workout", "doctor"}},
}

// taskTagOrder is the precedence used when an item carries several domain tags.
var taskTagOrder = []LifeDomain{DomainWork, DomainFamily, DomainHealth, DomainHome}

// ClassifyEventDomain derives a life domain from an event title.
func ClassifyEventDomain(title string) LifeDomain {
	lower := strings.ToLower(title)
	for _, group := range eventKeywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.domain
			}
		}
	}
	return DomainPersonal
}

// ClassifyTaskDomain derives a life domain from an item's tags.
func ClassifyTaskDomain(tags []string) LifeDomain {
	for _, d := range taskTagOrder {
		if containsFold(tags, string(d)) {
			return d
		}
	}
	return DomainPersonal
}

// DeriveStatus compares the time of day of now against the interval.
// A malformed interval yields StatusUpcoming.
func DeriveStatus(iv Interval, now time.Time) Status {
	start, end, err := iv.Bounds()
	if err != nil {
		return StatusUpcoming
	}
	current := now.Hour()*60 + now.Minute()
	switch {
	case current < start:
		return StatusUpcoming
	case current <= end:
		return StatusCurrent
	case current > end:
		return StatusCompleted
	default:
		return StatusUpcoming
	}
}

// DeriveEnergy buckets the hour of startTime. Buckets are checked in order, so
// hour 6 falls in the morning high-energy window rather than the low one.
func DeriveEnergy(startTime string) Energy {
	m, err := ToMinutes(startTime)
	if err != nil {
		return EnergyMedium
	}
	hour := m / 60
	switch {
	case hour >= 6 && hour <= 10:
		return EnergyHigh
	case hour >= 14 && hour <= 16:
		return EnergyHigh
	case hour >= 20 || hour <= 6:
		return EnergyLow
	default:
		return EnergyMedium
	}
}

// DeriveStatusOn extends DeriveStatus to entries on other dates: past dates are
// completed and future dates upcoming. Only same-day entries compare the time of day.
func DeriveStatusOn(date time.Time, iv Interval, now time.Time) Status {
	day := StartOfDay(date)
	today := StartOfDay(now.In(date.Location()))
	switch {
	case day.Before(today):
		return StatusCompleted
	case day.After(today):
		return StatusUpcoming
	default:
		return DeriveStatus(iv, now.In(date.Location()))
	}
}
