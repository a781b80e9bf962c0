package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
)

type mockDashboardCheckIns struct {
	count int
	times []time.Time
}

func (m *mockDashboardCheckIns) CountByUser(ctx context.Context, userID string) (int, error) {
	return m.count, nil
}

func (m *mockDashboardCheckIns) ListTimesByUser(ctx context.Context, userID string, limit int) ([]time.Time, error) {
	return m.times, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestCurrentStreak(t *testing.T) {
	now := day(2025, time.January, 9)

	tests := []struct {
		name  string
		times []time.Time
		want  int
	}{
		{"no history", nil, 0},
		{"today only", []time.Time{day(2025, time.January, 9)}, 1},
		{"three consecutive days", []time.Time{
			day(2025, time.January, 9),
			day(2025, time.January, 8),
			day(2025, time.January, 7),
		}, 3},
		{"streak survives until tomorrow", []time.Time{
			day(2025, time.January, 8),
			day(2025, time.January, 7),
		}, 2},
		{"gap breaks streak", []time.Time{
			day(2025, time.January, 9),
			day(2025, time.January, 7),
		}, 1},
		{"stale history", []time.Time{day(2025, time.January, 2)}, 0},
		{"multiple check-ins same day count once", []time.Time{
			day(2025, time.January, 9),
			time.Date(2025, time.January, 9, 18, 0, 0, 0, time.UTC),
			day(2025, time.January, 8),
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, currentStreak(tt.times, now))
		})
	}
}

func TestDashboardServiceSummary(t *testing.T) {
	now := day(2025, time.January, 9)

	checkIns := &mockDashboardCheckIns{
		count: 42,
		times: []time.Time{day(2025, time.January, 9), day(2025, time.January, 8)},
	}
	weightRepo := &mockWeightLogRepo{logs: []models.WeightLog{
		{WeightKg: 81.2, LoggedDate: day(2025, time.January, 8)},
		{WeightKg: 82.0, LoggedDate: day(2025, time.January, 2)},
	}}
	enrollments := &mockScheduleEnrollments{enrollments: []models.Enrollment{
		{ID: "e1", UserID: "u1", ClassID: "c1", Status: models.EnrollmentStatusActive},
	}}

	weights := NewWeightLogService(weightRepo, validator.New(), zap.NewNop(), nil, 2)
	weights.now = func() time.Time { return now }
	schedules := NewScheduleService(enrollments, &mockScheduleClasses{}, zap.NewNop())

	svc := NewDashboardService(checkIns, weightRepo, enrollments, weights, schedules, nil, zap.NewNop(), time.Minute)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 42, summary.TotalCheckIns)
	assert.Equal(t, 2, summary.CurrentStreak)
	require.NotNil(t, summary.LatestWeightKg)
	assert.Equal(t, 81.2, *summary.LatestWeightKg)
	require.NotNil(t, summary.WeightDeltaKg)
	assert.InDelta(t, -0.8, *summary.WeightDeltaKg, 0.0001)
	assert.Equal(t, 1, summary.ActiveEnrollment)
	assert.Equal(t, 2, summary.WeekQuota.MaxPerWeek)
}

func TestDashboardServiceSummaryEmptyMember(t *testing.T) {
	now := day(2025, time.January, 9)

	weightRepo := &mockWeightLogRepo{}
	weights := NewWeightLogService(weightRepo, validator.New(), zap.NewNop(), nil, 2)
	weights.now = func() time.Time { return now }
	schedules := NewScheduleService(&mockScheduleEnrollments{}, &mockScheduleClasses{}, zap.NewNop())

	svc := NewDashboardService(&mockDashboardCheckIns{}, weightRepo, &mockScheduleEnrollments{}, weights, schedules, nil, zap.NewNop(), time.Minute)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalCheckIns)
	assert.Equal(t, 0, summary.CurrentStreak)
	assert.Nil(t, summary.LatestWeightKg)
	assert.Nil(t, summary.WeightDeltaKg)
	assert.Equal(t, 0, summary.TodayClasses)
}
