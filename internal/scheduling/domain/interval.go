package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeRange  = errors.New("end time must be after start time")
	ErrInvalidClockRange = errors.New("clock range must be within a day and end after start")
)

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// TimeRange represents an absolute time window with half-open semantics
// [Start, End): the start instant is included, the end instant is not.
// A range ending exactly when another begins does not overlap it, which is
// what makes back-to-back bookings possible.
//
// All comparisons are on the caller-supplied instants; the engine performs no
// time zone conversion.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange creates a validated time range.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overlaps checks if two time ranges overlap under the half-open rule.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return t.Start.Before(other.End) && other.Start.Before(t.End)
}

// Contains checks if the other range lies entirely within this one.
func (t TimeRange) Contains(other TimeRange) bool {
	return !other.Start.Before(t.Start) && !other.End.After(t.End)
}

// Duration returns the length of the range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Weekday returns the weekday of the range's start.
func (t TimeRange) Weekday() time.Weekday {
	return t.Start.Weekday()
}

// ClockRange projects the range onto minutes since midnight of the start's
// day. For a range crossing midnight the end minute exceeds MinutesPerDay, so
// comparisons against same-day clock windows stay correct.
func (t TimeRange) ClockRange() ClockRange {
	midnight := time.Date(t.Start.Year(), t.Start.Month(), t.Start.Day(), 0, 0, 0, 0, t.Start.Location())
	return ClockRange{
		StartMinute: int(t.Start.Sub(midnight) / time.Minute),
		EndMinute:   int(t.End.Sub(midnight) / time.Minute),
	}
}

func (t TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", t.Start.Format(time.RFC3339), t.End.Format(time.RFC3339))
}

// ClockRange is a time-of-day window in minutes since midnight, half-open
// like TimeRange. Used for recurring availability and block time windows.
type ClockRange struct {
	StartMinute int
	EndMinute   int
}

// NewClockRange creates a validated clock range bounded to a single day.
func NewClockRange(startMinute, endMinute int) (ClockRange, error) {
	if startMinute < 0 || endMinute > MinutesPerDay || endMinute <= startMinute {
		return ClockRange{}, ErrInvalidClockRange
	}
	return ClockRange{StartMinute: startMinute, EndMinute: endMinute}, nil
}

// Overlaps checks if two clock ranges overlap.
func (c ClockRange) Overlaps(other ClockRange) bool {
	return c.StartMinute < other.EndMinute && other.StartMinute < c.EndMinute
}

// Contains checks if the other clock range lies entirely within this one.
func (c ClockRange) Contains(other ClockRange) bool {
	return other.StartMinute >= c.StartMinute && other.EndMinute <= c.EndMinute
}

// Duration returns the length of the clock range in minutes.
func (c ClockRange) Duration() int {
	return c.EndMinute - c.StartMinute
}

func (c ClockRange) String() string {
	return fmt.Sprintf("[%02d:%02d, %02d:%02d)",
		c.StartMinute/60, c.StartMinute%60, c.EndMinute/60, c.EndMinute%60)
}
