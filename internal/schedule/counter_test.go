package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekBounds(t *testing.T) {
	// Thu 2025-01-09 belongs to the week Mon Jan 6 .. Sun Jan 12.
	monday, sunday := WeekBounds(date(2025, time.January, 9))
	assert.True(t, monday.Equal(date(2025, time.January, 6)))
	assert.True(t, sunday.Equal(date(2025, time.January, 12)))
}

func TestWeekBoundsSundayBelongsToPrecedingMonday(t *testing.T) {
	monday, sunday := WeekBounds(date(2025, time.January, 12))
	assert.True(t, monday.Equal(date(2025, time.January, 6)))
	assert.True(t, sunday.Equal(date(2025, time.January, 12)))
}

func TestWeekBoundsOnMonday(t *testing.T) {
	monday, sunday := WeekBounds(date(2025, time.January, 6))
	assert.True(t, monday.Equal(date(2025, time.January, 6)))
	assert.True(t, sunday.Equal(date(2025, time.January, 12)))
}

func TestCountInWeek(t *testing.T) {
	now := date(2025, time.January, 9) // Thursday

	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{
			name:  "monday and saturday both count",
			dates: []time.Time{date(2025, time.January, 6), date(2025, time.January, 11)},
			want:  2,
		},
		{
			name:  "boundary monday and sunday count",
			dates: []time.Time{date(2025, time.January, 6), date(2025, time.January, 12)},
			want:  2,
		},
		{
			name:  "one day outside either boundary does not",
			dates: []time.Time{date(2025, time.January, 5), date(2025, time.January, 13)},
			want:  0,
		},
		{
			name:  "empty source counts zero",
			dates: nil,
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountInWeek(tt.dates, now))
		})
	}
}

func TestCountInWeekMixedLocations(t *testing.T) {
	// Log dates come back from the database as UTC midnights while now is a
	// local clock read. The boundary Monday and Sunday must still count when
	// the locations differ.
	entries := []time.Time{date(2025, time.January, 6), date(2025, time.January, 12)}

	east := time.FixedZone("UTC+12", 12*60*60)
	west := time.FixedZone("UTC-8", -8*60*60)
	assert.Equal(t, 2, CountInWeek(entries, time.Date(2025, time.January, 9, 10, 0, 0, 0, east)))
	assert.Equal(t, 2, CountInWeek(entries, time.Date(2025, time.January, 9, 10, 0, 0, 0, west)))
}

func TestWeekBoundsLocationIndependent(t *testing.T) {
	east := time.FixedZone("UTC+12", 12*60*60)
	monday, sunday := WeekBounds(time.Date(2025, time.January, 9, 23, 30, 0, 0, east))
	assert.True(t, monday.Equal(date(2025, time.January, 6)))
	assert.True(t, sunday.Equal(date(2025, time.January, 12)))
}

func TestWeeklyCap(t *testing.T) {
	assert.Equal(t, 2, Remaining(2, 0))
	assert.Equal(t, 1, Remaining(2, 1))
	assert.Equal(t, 0, Remaining(2, 2))
	assert.Equal(t, 0, Remaining(2, 5))

	assert.True(t, CanLogMore(0, 2))
	assert.True(t, CanLogMore(1, 2))
	assert.False(t, CanLogMore(2, 2))
	assert.False(t, CanLogMore(3, 2))
}

func TestNextSessionNumber(t *testing.T) {
	assert.Equal(t, 1, NextSessionNumber(0))
	assert.Equal(t, 8, NextSessionNumber(7))
}

func TestValidateWeight(t *testing.T) {
	v, err := ValidateWeight(72.5)
	assert.NoError(t, err)
	assert.Equal(t, 72.5, v)

	for _, invalid := range []float64{20, 19.9, 300, 305, 0, -5} {
		_, err := ValidateWeight(invalid)
		assert.ErrorIs(t, err, ErrWeightOutOfRange, "value %v", invalid)
	}
}
