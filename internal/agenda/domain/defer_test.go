package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeferOption(t *testing.T) {
	for _, in := range []string{"later_today", "Later-Today", "later today"} {
		opt, err := ParseDeferOption(in)
		require.NoError(t, err)
		assert.Equal(t, DeferLaterToday, opt)
	}

	_, err := ParseDeferOption("someday")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeferOption_ResolveDueDate(t *testing.T) {
	// Wednesday.
	wed := time.Date(2025, time.March, 5, 10, 20, 0, 0, time.UTC)

	tests := []struct {
		name   string
		option DeferOption
		now    time.Time
		want   time.Time
	}{
		{
			name:   "later today before six",
			option: DeferLaterToday,
			now:    wed,
			want:   time.Date(2025, time.March, 5, 18, 0, 0, 0, time.UTC),
		},
		{
			name:   "later today after six rounds to next hour",
			option: DeferLaterToday,
			now:    time.Date(2025, time.March, 5, 19, 10, 0, 0, time.UTC),
			want:   time.Date(2025, time.March, 5, 20, 0, 0, 0, time.UTC),
		},
		{
			name:   "later today at eleven at night rolls to midnight",
			option: DeferLaterToday,
			now:    time.Date(2025, time.March, 5, 23, 30, 0, 0, time.UTC),
			want:   time.Date(2025, time.March, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "tomorrow",
			option: DeferTomorrow,
			now:    wed,
			want:   time.Date(2025, time.March, 6, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "this friday from wednesday",
			option: DeferThisFriday,
			now:    wed,
			want:   time.Date(2025, time.March, 7, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "this friday early on friday",
			option: DeferThisFriday,
			now:    time.Date(2025, time.March, 7, 7, 0, 0, 0, time.UTC),
			want:   time.Date(2025, time.March, 7, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "this friday late on friday",
			option: DeferThisFriday,
			now:    time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC),
			want:   time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "next monday from wednesday",
			option: DeferNextMonday,
			now:    wed,
			want:   time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "next monday on a monday",
			option: DeferNextMonday,
			now:    time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC),
			want:   time.Date(2025, time.March, 17, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.option.ResolveDueDate(tt.now)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("archive has no due date", func(t *testing.T) {
		_, ok := DeferArchive.ResolveDueDate(wed)
		assert.False(t, ok)
	})
}

func TestAddTag_DoesNotMutateInput(t *testing.T) {
	in := make([]string, 1, 4)
	in[0] = "home"

	out := AddTag(in, "inbox")

	assert.Equal(t, []string{"home"}, in)
	assert.Equal(t, []string{"home", "inbox"}, out)
}
