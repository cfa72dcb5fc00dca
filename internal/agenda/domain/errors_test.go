package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("date", "expected YYYY-MM-DD")

	assert.Equal(t, "invalid date: expected YYYY-MM-DD", err.Error())
	assert.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	assert.True(t, errors.As(error(err), &ve))
	assert.Equal(t, "date", ve.Field)
}

func TestParseError(t *testing.T) {
	err := &ParseError{Input: "25:00", Reason: "hour out of range"}
	assert.Equal(t, `parse "25:00": hour out of range`, err.Error())
	assert.ErrorIs(t, err, ErrParse)
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &FetchError{Source: "caldav", Err: cause}

	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caldav")
}

func TestScheduleError(t *testing.T) {
	cause := errors.New("disk full")

	t.Run("compensated", func(t *testing.T) {
		err := &ScheduleError{State: ScheduleEventCreated, EventID: "evt-1", Compensated: true, Err: cause}
		assert.False(t, err.Dangling())
		assert.Equal(t, "schedule failed after event_created: disk full", err.Error())
		assert.ErrorIs(t, err, ErrScheduleFailed)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("dangling", func(t *testing.T) {
		err := &ScheduleError{State: ScheduleEventCreated, EventID: "evt-1", Err: cause}
		assert.True(t, err.Dangling())
		assert.Contains(t, err.Error(), "dangling event evt-1")
	})

	t.Run("before any write", func(t *testing.T) {
		err := &ScheduleError{State: ScheduleRequested, Err: cause}
		assert.False(t, err.Dangling())
	})
}
