package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcoach/fitcoach-api/internal/models"
)

func TestFilterWindowStartDateOverride(t *testing.T) {
	class := recurringClass(date(2025, time.January, 6), 2, 4)
	occs := Expand(class, date(2025, time.January, 1), date(2025, time.January, 31))
	require.Len(t, occs, 8)

	startDate := date(2025, time.January, 20)
	enr := models.Enrollment{
		ID:        "enr-1",
		UserID:    "user-1",
		ClassID:   class.ID,
		StartDate: &startDate,
		Status:    models.EnrollmentStatusActive,
	}

	filtered := FilterWindow(occs, enr, class)
	expected := []time.Time{
		date(2025, time.January, 20), date(2025, time.January, 22),
		date(2025, time.January, 27), date(2025, time.January, 29),
	}
	require.Len(t, filtered, len(expected))
	for i, want := range expected {
		assert.True(t, filtered[i].Date.Equal(want))
	}
}

func TestFilterWindowFallsBackToClassAnchor(t *testing.T) {
	class := recurringClass(date(2025, time.January, 6), 2, 4)
	occs := Expand(class, date(2025, time.January, 1), date(2025, time.January, 31))

	enr := models.Enrollment{Status: models.EnrollmentStatusActive}

	filtered := FilterWindow(occs, enr, class)
	assert.Equal(t, occs, filtered)
}

func TestFilterWindowSubsetOfInput(t *testing.T) {
	class := recurringClass(date(2025, time.January, 6), 2, 4)
	occs := Expand(class, date(2025, time.January, 1), date(2025, time.January, 31))

	startDate := date(2025, time.January, 15)
	enr := models.Enrollment{StartDate: &startDate, Status: models.EnrollmentStatusActive}

	filtered := FilterWindow(occs, enr, class)
	seen := make(map[time.Time]bool, len(occs))
	for _, o := range occs {
		seen[o.Date] = true
	}
	for _, o := range filtered {
		assert.True(t, seen[o.Date], "filtered date %v not in input", o.Date)
	}
	assert.LessOrEqual(t, len(filtered), len(occs))
}

func TestFilterWindowInactiveEnrollmentSeesNothing(t *testing.T) {
	class := recurringClass(date(2025, time.January, 6), 2, 4)
	occs := Expand(class, date(2025, time.January, 1), date(2025, time.January, 31))
	require.NotEmpty(t, occs)

	for _, status := range []models.EnrollmentStatus{models.EnrollmentStatusPaused, models.EnrollmentStatusCancelled} {
		enr := models.Enrollment{Status: status}
		assert.Empty(t, FilterWindow(occs, enr, class), "status %s", status)
	}
}
