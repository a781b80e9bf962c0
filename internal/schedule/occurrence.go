// Package schedule contains the pure calendar logic behind class schedules
// and logging limits: recurrence expansion, enrollment window filtering and
// period-bounded counters. Functions here hold no state and perform no I/O,
// so results depend only on their inputs.
package schedule

import (
	"time"

	"github.com/fitcoach/fitcoach-api/internal/models"
)

// OccurrenceSource tells whether a date came from the recurrence rule or the
// fixed single event date.
type OccurrenceSource string

const (
	SourceRecurring OccurrenceSource = "recurring"
	SourceSingle    OccurrenceSource = "single"
)

// Occurrence is a concrete calendar date on which a class runs. Derived, not
// persisted.
type Occurrence struct {
	ClassID string           `json:"class_id"`
	Date    time.Time        `json:"date"`
	Source  OccurrenceSource `json:"source"`
}

// dayOf truncates a timestamp to midnight of its calendar day, pinned to
// UTC. Callers hand in values from mixed locations (query params parsed as
// UTC, driver-location dates from the database, local clock reads), so day
// comparisons must depend only on the year/month/day components.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekdayNumber maps a date to the Sunday=1..Saturday=7 convention used by
// Class.RecurringDays.
func weekdayNumber(t time.Time) int {
	return int(t.Weekday()) + 1
}

// Expand materializes the occurrence dates of a class within [from, to],
// inclusive, at day granularity.
//
// A non-recurring class (or a recurring one with no weekdays configured)
// occurs exactly once, on its event date, and only when that date falls
// inside the range. A recurring class occurs on every day in the range whose
// weekday is listed in RecurringDays, starting no earlier than the event
// date: the anchor is a hard lower bound regardless of the requested range.
// Weekday numbers outside 1..7 never match and are not an error.
//
// Output is in ascending date order and is deterministic for identical
// inputs.
func Expand(class models.Class, from, to time.Time) []Occurrence {
	start := dayOf(from)
	end := dayOf(to)
	if end.Before(start) {
		return nil
	}
	anchor := dayOf(class.EventDate)

	if !class.IsRecurring || len(class.RecurringDays) == 0 {
		if anchor.Before(start) || anchor.After(end) {
			return nil
		}
		return []Occurrence{{ClassID: class.ID, Date: anchor, Source: SourceSingle}}
	}

	days := make(map[int]struct{}, len(class.RecurringDays))
	for _, d := range class.RecurringDays {
		days[int(d)] = struct{}{}
	}

	var out []Occurrence
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Before(anchor) {
			continue
		}
		if _, ok := days[weekdayNumber(d)]; ok {
			out = append(out, Occurrence{ClassID: class.ID, Date: d, Source: SourceRecurring})
		}
	}
	return out
}
