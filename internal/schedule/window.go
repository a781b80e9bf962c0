package schedule

import (
	"github.com/fitcoach/fitcoach-api/internal/models"
)

// FilterWindow narrows a class's occurrences to the dates a specific member
// is allowed to see. The effective lower bound is the enrollment's own start
// date when present, otherwise the class event date; occurrences strictly
// before it are dropped. A paused or cancelled enrollment sees nothing, even
// though the class keeps producing occurrences for other members.
//
// The result is always a subset of the input, in input order.
func FilterWindow(occs []Occurrence, enr models.Enrollment, class models.Class) []Occurrence {
	if enr.Status != models.EnrollmentStatusActive {
		return nil
	}

	effectiveStart := dayOf(class.EventDate)
	if enr.StartDate != nil {
		effectiveStart = dayOf(*enr.StartDate)
	}

	var out []Occurrence
	for _, o := range occs {
		if dayOf(o.Date).Before(effectiveStart) {
			continue
		}
		out = append(out, o)
	}
	return out
}
