package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	"github.com/fitcoach/fitcoach-api/internal/schedule"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

type mockScheduleEnrollments struct {
	enrollments []models.Enrollment
}

func (m *mockScheduleEnrollments) ListActiveByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	return m.enrollments, nil
}

type mockScheduleClasses struct {
	classes []models.Class
}

func (m *mockScheduleClasses) FindByIDs(ctx context.Context, ids []string) ([]models.Class, error) {
	return m.classes, nil
}

func TestScheduleServiceMemberScheduleRecurring(t *testing.T) {
	// Mondays and Wednesdays through January 2025, anchored at Jan 6.
	class := models.Class{
		ID:            "c1",
		Name:          "Morning HIIT",
		EventDate:     time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		StartTime:     "07:00:00",
		EndTime:       "08:00:00",
		IsRecurring:   true,
		RecurringDays: pq.Int64Array{2, 4},
		Status:        models.ClassStatusScheduled,
	}
	svc := NewScheduleService(
		&mockScheduleEnrollments{enrollments: []models.Enrollment{{ID: "e1", UserID: "u1", ClassID: "c1", Status: models.EnrollmentStatusActive}}},
		&mockScheduleClasses{classes: []models.Class{class}},
		zap.NewNop(),
	)

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	entries, err := svc.MemberSchedule(context.Background(), "u1", from, to)
	require.NoError(t, err)

	var dates []string
	for _, e := range entries {
		dates = append(dates, e.Date)
		assert.Equal(t, schedule.SourceRecurring, e.Source)
		assert.Equal(t, "07:00:00", e.StartTime)
	}
	assert.Equal(t, []string{
		"2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15",
		"2025-01-20", "2025-01-22", "2025-01-27", "2025-01-29",
	}, dates)
}

func TestScheduleServiceHonorsEnrollmentStartDate(t *testing.T) {
	class := models.Class{
		ID:            "c1",
		Name:          "Morning HIIT",
		EventDate:     time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		IsRecurring:   true,
		RecurringDays: pq.Int64Array{2, 4},
		Status:        models.ClassStatusScheduled,
	}
	startDate := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)
	svc := NewScheduleService(
		&mockScheduleEnrollments{enrollments: []models.Enrollment{{
			ID: "e1", UserID: "u1", ClassID: "c1",
			Status: models.EnrollmentStatusActive, StartDate: &startDate,
		}}},
		&mockScheduleClasses{classes: []models.Class{class}},
		zap.NewNop(),
	)

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	entries, err := svc.MemberSchedule(context.Background(), "u1", from, to)
	require.NoError(t, err)

	var dates []string
	for _, e := range entries {
		dates = append(dates, e.Date)
	}
	assert.Equal(t, []string{"2025-01-20", "2025-01-22", "2025-01-27", "2025-01-29"}, dates)
}

func TestScheduleServiceSkipsCancelledClasses(t *testing.T) {
	class := models.Class{
		ID:            "c1",
		EventDate:     time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		IsRecurring:   true,
		RecurringDays: pq.Int64Array{2},
		Status:        models.ClassStatusCancelled,
	}
	svc := NewScheduleService(
		&mockScheduleEnrollments{enrollments: []models.Enrollment{{ID: "e1", UserID: "u1", ClassID: "c1", Status: models.EnrollmentStatusActive}}},
		&mockScheduleClasses{classes: []models.Class{class}},
		zap.NewNop(),
	)

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	entries, err := svc.MemberSchedule(context.Background(), "u1", from, to)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScheduleServiceNoEnrollments(t *testing.T) {
	svc := NewScheduleService(&mockScheduleEnrollments{}, &mockScheduleClasses{}, zap.NewNop())

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	entries, err := svc.MemberSchedule(context.Background(), "u1", from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestScheduleServiceViewportLimit(t *testing.T) {
	svc := NewScheduleService(&mockScheduleEnrollments{}, &mockScheduleClasses{}, zap.NewNop())

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.MemberSchedule(context.Background(), "u1", from, from.AddDate(0, 0, 90))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.MemberSchedule(context.Background(), "u1", from, from.AddDate(0, 0, -1))
	require.Error(t, err)
}

func TestScheduleServiceSortsByDateAndTime(t *testing.T) {
	early := models.Class{
		ID: "c1", Name: "Morning HIIT",
		EventDate: time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC),
		StartTime: "07:00:00", EndTime: "08:00:00",
		Status: models.ClassStatusScheduled,
	}
	late := models.Class{
		ID: "c2", Name: "Evening Yoga",
		EventDate: time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC),
		StartTime: "18:00:00", EndTime: "19:00:00",
		Status: models.ClassStatusScheduled,
	}
	svc := NewScheduleService(
		&mockScheduleEnrollments{enrollments: []models.Enrollment{
			{ID: "e1", UserID: "u1", ClassID: "c1", Status: models.EnrollmentStatusActive},
			{ID: "e2", UserID: "u1", ClassID: "c2", Status: models.EnrollmentStatusActive},
		}},
		&mockScheduleClasses{classes: []models.Class{late, early}},
		zap.NewNop(),
	)

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	entries, err := svc.MemberSchedule(context.Background(), "u1", from, to)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Morning HIIT", entries[0].ClassName)
	assert.Equal(t, "Evening Yoga", entries[1].ClassName)
	assert.Equal(t, schedule.SourceSingle, entries[0].Source)
}
