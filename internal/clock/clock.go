// Package clock resolves "now" and day boundaries for the queue. All
// per-day queries are scoped local-midnight to local-midnight, matching the
// calendar day patients experience, not UTC.
package clock

import "time"

// Clock supplies the current time. Services take a Clock so tests can pin
// the day.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}

// DayOf truncates an instant to its local calendar day.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBounds returns the [start, end) range covering the local calendar day
// of t.
func DayBounds(t time.Time) (start, end time.Time) {
	start = DayOf(t)
	return start, start.AddDate(0, 0, 1)
}
