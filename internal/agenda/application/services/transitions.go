package services

import (
	"fmt"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

const (
	// DefaultTransitionThreshold is the gap in minutes that must be exceeded.
	DefaultTransitionThreshold = 10

	transitionHarmonyScore = 85
)

// TransitionSynthesizer inserts transition entries between adjacent scheduled
// entries of different life domains.
type TransitionSynthesizer struct {
	clock     domain.Clock
	threshold int
}

// NewTransitionSynthesizer creates a synthesizer. A negative threshold uses
// the default; zero inserts a transition for any positive gap.
func NewTransitionSynthesizer(clock domain.Clock, threshold int) *TransitionSynthesizer {
	if threshold < 0 {
		threshold = DefaultTransitionThreshold
	}
	return &TransitionSynthesizer{clock: clock, threshold: threshold}
}

// Threshold returns the gap in minutes a pair must exceed.
func (s *TransitionSynthesizer) Threshold() int {
	return s.threshold
}

// Insert returns a new slice with transitions placed between qualifying
// neighbours. Unscheduled entries are passed through and never paired, and
// pairs on different dates never get a transition.
func (s *TransitionSynthesizer) Insert(entries []domain.Entry) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for i, cur := range entries {
		if i > 0 {
			if t, ok := s.between(entries[i-1], cur); ok {
				out = append(out, t)
			}
		}
		out = append(out, cur)
	}
	return out
}

func (s *TransitionSynthesizer) between(prev, next domain.Entry) (domain.Entry, bool) {
	if prev.Interval == nil || next.Interval == nil {
		return domain.Entry{}, false
	}
	if prev.Kind.IsSynthetic() || next.Kind.IsSynthetic() {
		return domain.Entry{}, false
	}
	if prev.Date != next.Date || prev.Domain == next.Domain {
		return domain.Entry{}, false
	}
	gap, err := domain.GapMinutes(prev.Interval.End, next.Interval.Start)
	if err != nil || gap <= s.threshold {
		return domain.Entry{}, false
	}

	iv := domain.Interval{Start: prev.Interval.End, End: next.Interval.Start}
	t := domain.Entry{
		ID:                       domain.TransitionIDPrefix + prev.ID + "-" + next.ID,
		Kind:                     domain.KindTransition,
		Title:                    fmt.Sprintf("Transition: %s to %s", prev.Domain.Label(), next.Domain.Label()),
		Date:                     prev.Date,
		Interval:                 &iv,
		Domain:                   domain.DomainTransition,
		Priority:                 domain.PriorityLow,
		Energy:                   domain.EnergyLow,
		HarmonyScore:             transitionHarmonyScore,
		EstimatedDurationMinutes: gap,
	}
	t.Status = t.StatusAt(s.clock.Now())
	return t, true
}
