package timespec

import (
	"time"
)

// Outcome is the result of checking a Spec against the current instant.
type Outcome int

const (
	// Unrepresentable means the digits do not form a calendar date/time.
	Unrepresentable Outcome = iota
	// Past means the instant is at or before now.
	Past
	// Future means the instant is strictly after now.
	Future
)

func (o Outcome) String() string {
	switch o {
	case Future:
		return "future"
	case Past:
		return "past"
	default:
		return "unrepresentable"
	}
}

// Representable reports whether the digit groups of s form a real calendar
// date and clock time (years 1 to 9999).
func (s Spec) Representable() bool {
	if s.Year < 1 || s.Year > 9999 {
		return false
	}
	if s.Month < 1 || s.Month > 12 {
		return false
	}
	if s.Day < 1 || s.Day > daysIn(time.Month(s.Month), s.Year) {
		return false
	}
	return s.Hour >= 0 && s.Hour <= 23 && s.Minute >= 0 && s.Minute <= 59
}

// Due returns the local calendar instant for s. The result is only
// meaningful when s is Representable; time.Date normalises anything else.
func (s Spec) Due() time.Time {
	return time.Date(s.Year, time.Month(s.Month), s.Day, s.Hour, s.Minute, 0, 0, time.Local)
}

// Classify decides whether s lies strictly after now.
func Classify(s Spec, now time.Time) Outcome {
	if !s.Representable() {
		return Unrepresentable
	}
	if s.Due().After(now) {
		return Future
	}
	return Past
}

// IsFuture collapses Classify to a boolean. Unrepresentable specs are never
// in the future.
func IsFuture(s Spec, now time.Time) bool {
	return Classify(s, now) == Future
}

// Delay returns the time from now until s is due. It does not guard against
// negative results; callers check IsFuture first.
func Delay(s Spec, now time.Time) time.Duration {
	return s.Due().Sub(now)
}

// DelaySeconds is Delay expressed as fractional seconds.
func DelaySeconds(s Spec, now time.Time) float64 {
	return Delay(s, now).Seconds()
}

func daysIn(m time.Month, year int) int {
	// Day 0 of the following month is the last day of m.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
