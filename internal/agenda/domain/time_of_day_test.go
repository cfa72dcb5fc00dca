package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "midnight", input: "00:00", want: 0},
		{name: "morning", input: "09:05", want: 545},
		{name: "single digit hour", input: "9:30", want: 570},
		{name: "last minute", input: "23:59", want: 1439},
		{name: "surrounding spaces", input: " 10:15 ", want: 615},
		{name: "missing colon", input: "0930", wantErr: true},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "minute out of range", input: "10:60", wantErr: true},
		{name: "single digit minute", input: "10:5", wantErr: true},
		{name: "letters", input: "ab:cd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-1:30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinutes(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrParse)
				var parseErr *ParseError
				assert.True(t, errors.As(err, &parseErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "00:00", FormatMinutes(0))
	assert.Equal(t, "09:45", FormatMinutes(585))
	assert.Equal(t, "23:59", FormatMinutes(1439))
}

func TestAddMinutes(t *testing.T) {
	t.Run("adds within the day", func(t *testing.T) {
		got, err := AddMinutes("09:00", 45)
		require.NoError(t, err)
		assert.Equal(t, "09:45", got)
	})

	t.Run("crosses the hour", func(t *testing.T) {
		got, err := AddMinutes("09:50", 30)
		require.NoError(t, err)
		assert.Equal(t, "10:20", got)
	})

	t.Run("subtracts", func(t *testing.T) {
		got, err := AddMinutes("01:00", -60)
		require.NoError(t, err)
		assert.Equal(t, "00:00", got)
	})

	t.Run("rejects overflow past midnight", func(t *testing.T) {
		_, err := AddMinutes("23:45", 30)
		assert.ErrorIs(t, err, ErrTimeOutOfDay)
	})

	t.Run("rejects landing exactly on midnight", func(t *testing.T) {
		_, err := AddMinutes("23:30", 30)
		assert.ErrorIs(t, err, ErrTimeOutOfDay)
	})

	t.Run("rejects underflow", func(t *testing.T) {
		_, err := AddMinutes("00:10", -20)
		assert.ErrorIs(t, err, ErrTimeOutOfDay)
	})

	t.Run("propagates parse errors", func(t *testing.T) {
		_, err := AddMinutes("nine", 10)
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestOverlapMinutes(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want int
	}{
		{name: "partial", a: Interval{"09:00", "10:00"}, b: Interval{"09:30", "11:00"}, want: 30},
		{name: "contained", a: Interval{"09:00", "12:00"}, b: Interval{"10:00", "10:15"}, want: 15},
		{name: "touching", a: Interval{"09:00", "10:00"}, b: Interval{"10:00", "11:00"}, want: 0},
		{name: "disjoint", a: Interval{"09:00", "10:00"}, b: Interval{"13:00", "14:00"}, want: 0},
		{name: "reversed order", a: Interval{"13:00", "14:00"}, b: Interval{"09:00", "13:30"}, want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OverlapMinutes(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		_, err := OverlapMinutes(Interval{"9", "10:00"}, Interval{"09:00", "10:00"})
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestGapMinutes(t *testing.T) {
	gap, err := GapMinutes("10:00", "10:15")
	require.NoError(t, err)
	assert.Equal(t, 15, gap)

	gap, err = GapMinutes("10:00", "09:30")
	require.NoError(t, err)
	assert.Equal(t, -30, gap)
}

func TestInterval_Validate(t *testing.T) {
	assert.NoError(t, Interval{Start: "09:00", End: "09:01"}.Validate())
	assert.ErrorIs(t, Interval{Start: "09:00", End: "09:00"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Interval{Start: "22:00", End: "01:00"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Interval{Start: "22:00", End: "x"}.Validate(), ErrParse)

	d, err := Interval{Start: "09:15", End: "10:00"}.DurationMinutes()
	require.NoError(t, err)
	assert.Equal(t, 45, d)
}

func TestParseDueDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	d, err := ParseDueDate("2025-03-07", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, loc), d)

	ts, err := ParseDueDate("2025-03-07T18:00:00Z", loc)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2025, time.March, 7, 18, 0, 0, 0, time.UTC)))

	_, err = ParseDueDate("next week", loc)
	assert.ErrorIs(t, err, ErrParse)
}

func TestSameDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	a := time.Date(2025, time.March, 7, 23, 0, 0, 0, loc)
	b := time.Date(2025, time.March, 8, 3, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, a.Add(2*time.Hour)))
	assert.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, loc), StartOfDay(a))
}
