package services

import (
	"testing"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/stretchr/testify/assert"
)

func TestHarmonyScore(t *testing.T) {
	tests := []struct {
		name     string
		entry    domain.Entry
		siblings []domain.Entry
		want     int
	}{
		{
			name:  "alone on the day",
			entry: scheduledEntry("a", domain.DomainWork, "09:00", "10:00"),
			want:  85,
		},
		{
			name:     "well spaced same domain",
			entry:    scheduledEntry("a", domain.DomainWork, "09:00", "10:00"),
			siblings: []domain.Entry{scheduledEntry("b", domain.DomainWork, "10:30", "11:00")},
			want:     85,
		},
		{
			name:     "short gap different domain",
			entry:    scheduledEntry("a", domain.DomainWork, "09:00", "10:00"),
			siblings: []domain.Entry{scheduledEntry("b", domain.DomainFamily, "10:05", "11:00")},
			want:     83,
		},
		{
			name:     "back to back",
			entry:    scheduledEntry("a", domain.DomainWork, "09:00", "10:00"),
			siblings: []domain.Entry{scheduledEntry("b", domain.DomainWork, "10:00", "11:00")},
			want:     73,
		},
		{
			name:     "overlap",
			entry:    scheduledEntry("a", domain.DomainWork, "09:00", "10:00"),
			siblings: []domain.Entry{scheduledEntry("b", domain.DomainWork, "09:30", "11:00")},
			want:     70,
		},
		{
			name:  "diversity is capped",
			entry: scheduledEntry("a", domain.DomainWork, "06:00", "07:00"),
			siblings: []domain.Entry{
				scheduledEntry("b", domain.DomainFamily, "09:00", "10:00"),
				scheduledEntry("c", domain.DomainHome, "11:00", "12:00"),
				scheduledEntry("d", domain.DomainHealth, "13:00", "14:00"),
				scheduledEntry("e", domain.DomainPersonal, "15:00", "16:00"),
			},
			want: 100,
		},
		{
			name:  "unscheduled entries keep the fixed score",
			entry: itemEntry("x", domain.PriorityLow, domain.KindTask, 30, nil),
			want:  UnscheduledHarmonyScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HarmonyScore(tt.entry, tt.siblings))
		})
	}
}

func TestScoreHarmony_IgnoresOtherDates(t *testing.T) {
	a := scheduledEntry("a", domain.DomainWork, "09:00", "10:00")
	b := scheduledEntry("b", domain.DomainFamily, "09:30", "10:30")
	b.Date = "2025-03-06"

	scored := ScoreHarmony([]domain.Entry{a, b})

	assert.Equal(t, 85, scored[0].HarmonyScore)
	assert.Equal(t, 85, scored[1].HarmonyScore)
	assert.Equal(t, 0, a.HarmonyScore)
}
