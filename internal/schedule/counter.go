package schedule

import (
	"errors"
	"time"
)

// Weight bounds for weigh-in validation, kilograms. Exclusive on both ends.
const (
	MinWeightKg = 20.0
	MaxWeightKg = 300.0
)

// ErrWeightOutOfRange is returned by ValidateWeight for values outside the
// accepted interval.
var ErrWeightOutOfRange = errors.New("weight must be between 20 and 300 kg")

// WeekBounds returns the Monday and Sunday of the week containing now, at
// day granularity. Weeks start on Monday: a Sunday belongs to the week that
// began the preceding Monday.
func WeekBounds(now time.Time) (time.Time, time.Time) {
	d := dayOf(now)
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// CountInWeek counts how many of the given dates fall inside the week
// containing now, boundary days included. An empty or nil slice counts as
// zero, which keeps quota checks failing open when the log source is
// unavailable.
func CountInWeek(dates []time.Time, now time.Time) int {
	monday, sunday := WeekBounds(now)
	count := 0
	for _, t := range dates {
		d := dayOf(t)
		if !d.Before(monday) && !d.After(sunday) {
			count++
		}
	}
	return count
}

// Remaining returns how many logs are left in the current period, never
// negative.
func Remaining(maxPerWeek, count int) int {
	if r := maxPerWeek - count; r > 0 {
		return r
	}
	return 0
}

// CanLogMore reports whether another log is allowed under the weekly cap.
func CanLogMore(count, maxPerWeek int) bool {
	return count < maxPerWeek
}

// NextSessionNumber derives the "session N" label for a new check-in from
// the length of the user's history. It is a display sequence only: nothing
// is persisted or reserved, so concurrent check-ins may observe the same
// number.
func NextSessionNumber(historyLen int) int {
	return historyLen + 1
}

// ValidateWeight checks a raw weigh-in value against the accepted interval
// and returns it unchanged when valid.
func ValidateWeight(v float64) (float64, error) {
	if v <= MinWeightKg || v >= MaxWeightKg {
		return 0, ErrWeightOutOfRange
	}
	return v, nil
}
