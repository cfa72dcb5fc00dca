package services

import (
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

const (
	harmonyBase = 70
	harmonyMax  = 100
)

// HarmonyScore rates how well a scheduled entry sits among the other entries on
// its date. The result is deterministic and always within [70, 100]:
//
//	70 base
//	+ spacing: no neighbours or >= 15 min to the nearest one +15, >= 5 +8, touching +3, overlap +0
//	+ diversity: 5 per additional distinct domain on the date, capped at 15
func HarmonyScore(entry domain.Entry, siblings []domain.Entry) int {
	if entry.Interval == nil {
		return UnscheduledHarmonyScore
	}
	start, end, err := entry.Interval.Bounds()
	if err != nil {
		return harmonyBase
	}

	neighbours := 0
	overlaps := false
	nearest := domain.MinutesPerDay
	domains := map[domain.LifeDomain]struct{}{entry.Domain: {}}
	for _, s := range siblings {
		if s.ID == entry.ID || s.Interval == nil || s.Date != entry.Date {
			continue
		}
		sStart, sEnd, err := s.Interval.Bounds()
		if err != nil {
			continue
		}
		neighbours++
		domains[s.Domain] = struct{}{}

		gap := max(sStart-end, start-sEnd)
		if gap < 0 {
			overlaps = true
			continue
		}
		nearest = min(nearest, gap)
	}

	score := harmonyBase
	switch {
	case overlaps:
	case neighbours == 0, nearest >= 15:
		score += 15
	case nearest >= 5:
		score += 8
	default:
		score += 3
	}
	score += min(15, 5*(len(domains)-1))

	return min(harmonyMax, max(harmonyBase, score))
}

// ScoreHarmony returns a copy of entries with HarmonyScore filled in.
func ScoreHarmony(entries []domain.Entry) []domain.Entry {
	out := make([]domain.Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].HarmonyScore = HarmonyScore(entries[i], entries)
	}
	return out
}
