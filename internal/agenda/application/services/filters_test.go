package services

import (
	"testing"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterFixture() []domain.Entry {
	mom := itemEntry("mom-today", domain.PriorityHigh, domain.KindTask, 30, dayOffset(0))
	mom.AssignedTo = "mom"
	mom.Description = "Pick up the dry cleaning"

	dad := itemEntry("dad-overdue", domain.PriorityLow, domain.KindTask, 30, dayOffset(-1))
	dad.AssignedTo = "dad"

	nobody := itemEntry("nobody", domain.PriorityCritical, domain.KindGoal, 30, nil)
	nobody.Title = "Plan summer VACATION"

	return []domain.Entry{mom, dad, nobody}
}

func TestApplyFilters_EmptyFiltersReturnEverything(t *testing.T) {
	entries := filterFixture()

	out, err := ApplyFilters(entries, Filters{Priorities: []domain.Priority{}, AssignedTo: []string{}}, testNow)

	require.NoError(t, err)
	assert.Equal(t, entries, out)
	assert.True(t, Filters{}.IsZero())
}

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{
			name:    "priority set",
			filters: Filters{Priorities: []domain.Priority{domain.PriorityHigh, domain.PriorityCritical}},
			want:    []string{"unscheduled-mom-today", "unscheduled-nobody"},
		},
		{
			name:    "assignee set excludes unassigned",
			filters: Filters{AssignedTo: []string{"dad", "mom"}},
			want:    []string{"unscheduled-mom-today", "unscheduled-dad-overdue"},
		},
		{
			name:    "due today",
			filters: Filters{DueToday: true},
			want:    []string{"unscheduled-mom-today"},
		},
		{
			name:    "overdue",
			filters: Filters{Overdue: true},
			want:    []string{"unscheduled-dad-overdue"},
		},
		{
			name:    "search title case-insensitive",
			filters: Filters{Search: "vacation"},
			want:    []string{"unscheduled-nobody"},
		},
		{
			name:    "search description",
			filters: Filters{Search: "DRY"},
			want:    []string{"unscheduled-mom-today"},
		},
		{
			name:    "conjunction",
			filters: Filters{Priorities: []domain.Priority{domain.PriorityHigh}, AssignedTo: []string{"dad"}},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyFilters(filterFixture(), tt.filters, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestApplyFilters_Validation(t *testing.T) {
	_, err := ApplyFilters(filterFixture(), Filters{DueToday: true, Overdue: true}, testNow)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ApplyFilters(filterFixture(), Filters{Priorities: []domain.Priority{"urgent"}}, testNow)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
