package domain

import (
	"errors"
	"fmt"
)

var (
	ErrParse          = errors.New("parse error")
	ErrValidation     = errors.New("validation error")
	ErrFetchFailed    = errors.New("fetch failed")
	ErrScheduleFailed = errors.New("schedule failed")
	ErrTimeOutOfDay   = errors.New("time falls outside a single day")
	ErrItemNotFound   = errors.New("schedulable item not found")
	ErrEventNotFound  = errors.New("calendar event not found")
)

// ParseError reports a malformed time or date string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ValidationError reports an invalid command, filter or record rejected before processing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// FetchError reports a failing read source. The source list is treated as empty.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrFetchFailed, e.Err} }

// ScheduleState is the progress of a single scheduling attempt.
type ScheduleState string

const (
	ScheduleRequested             ScheduleState = "requested"
	ScheduleEventCreated          ScheduleState = "event_created"
	ScheduleSourceMarkedScheduled ScheduleState = "source_marked_scheduled"
	ScheduleDone                  ScheduleState = "done"
	ScheduleFailedState           ScheduleState = "failed"
)

// ScheduleError is returned when a scheduling write fails.
// State is the last state reached before the failure. EventID is set once an
// event was written; Compensated reports that the write was rolled back or undone.
type ScheduleError struct {
	State       ScheduleState
	EventID     string
	Compensated bool
	Err         error
}

func (e *ScheduleError) Error() string {
	msg := fmt.Sprintf("schedule failed after %s: %v", e.State, e.Err)
	if e.Dangling() {
		msg += fmt.Sprintf(" (dangling event %s)", e.EventID)
	}
	return msg
}

func (e *ScheduleError) Unwrap() []error { return []error{ErrScheduleFailed, e.Err} }

// Dangling reports whether the failure left an event without a matching source update.
func (e *ScheduleError) Dangling() bool {
	return e.EventID != "" && !e.Compensated
}
