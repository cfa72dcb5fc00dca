package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MinutesPerDay bounds every time-of-day value: [0, MinutesPerDay).
	MinutesPerDay = 24 * 60

	// DateLayout is the ISO calendar date format used on the wire.
	DateLayout = "2006-01-02"
)

// Interval is a same-day span in 24-hour "HH:MM" notation.
type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ToMinutes parses a 24-hour "HH:MM" string into minutes since midnight.
func ToMinutes(t string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(t), ":")
	if !ok {
		return 0, &ParseError{Input: t, Reason: "missing colon"}
	}
	if hh == "" || mm == "" || len(mm) != 2 || len(hh) > 2 {
		return 0, &ParseError{Input: t, Reason: "expected HH:MM"}
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, &ParseError{Input: t, Reason: "hour is not a number"}
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, &ParseError{Input: t, Reason: "minute is not a number"}
	}
	if hour < 0 || hour > 23 {
		return 0, &ParseError{Input: t, Reason: "hour out of range"}
	}
	if minute < 0 || minute > 59 {
		return 0, &ParseError{Input: t, Reason: "minute out of range"}
	}
	return hour*60 + minute, nil
}

// FormatMinutes renders minutes since midnight as "HH:MM".
// The value must already be within a single day.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes shifts t by delta minutes. Results outside [00:00, 23:59] fail
// with ErrTimeOutOfDay instead of rolling over into another day.
func AddMinutes(t string, delta int) (string, error) {
	base, err := ToMinutes(t)
	if err != nil {
		return "", err
	}
	result := base + delta
	if result < 0 || result >= MinutesPerDay {
		return "", fmt.Errorf("%s %+d minutes: %w", t, delta, ErrTimeOutOfDay)
	}
	return FormatMinutes(result), nil
}

// Bounds returns the interval endpoints in minutes since midnight.
func (iv Interval) Bounds() (start, end int, err error) {
	start, err = ToMinutes(iv.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = ToMinutes(iv.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Validate checks that End strictly follows Start within the same day.
func (iv Interval) Validate() error {
	start, end, err := iv.Bounds()
	if err != nil {
		return err
	}
	if end <= start {
		return NewValidationError("interval", fmt.Sprintf("end %s must follow start %s", iv.End, iv.Start))
	}
	return nil
}

// DurationMinutes returns End-Start in minutes.
func (iv Interval) DurationMinutes() (int, error) {
	start, end, err := iv.Bounds()
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// OverlapMinutes returns how many minutes a and b share. Disjoint intervals yield 0.
func OverlapMinutes(a, b Interval) (int, error) {
	aStart, aEnd, err := a.Bounds()
	if err != nil {
		return 0, err
	}
	bStart, bEnd, err := b.Bounds()
	if err != nil {
		return 0, err
	}
	overlap := min(aEnd, bEnd) - max(aStart, bStart)
	if overlap < 0 {
		return 0, nil
	}
	return overlap, nil
}

// GapMinutes returns bStart-aEnd. Negative when the two are out of order or overlap.
func GapMinutes(aEnd, bStart string) (int, error) {
	end, err := ToMinutes(aEnd)
	if err != nil {
		return 0, err
	}
	start, err := ToMinutes(bStart)
	if err != nil {
		return 0, err
	}
	return start - end, nil
}

// ParseDate parses an ISO calendar date in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// ParseDueDate accepts either an RFC 3339 timestamp or an ISO calendar date.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := ParseDate(s, loc)
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Reason: "expected RFC 3339 timestamp or YYYY-MM-DD"}
	}
	return d, nil
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
