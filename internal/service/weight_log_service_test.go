package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

type mockWeightLogRepo struct {
	logs      []models.WeightLog
	dates     []time.Time
	datesErr  error
	created   *models.WeightLog
	createErr error
}

func (m *mockWeightLogRepo) List(ctx context.Context, filter models.WeightLogFilter) ([]models.WeightLog, int, error) {
	return m.logs, len(m.logs), nil
}

func (m *mockWeightLogRepo) ListDatesInRange(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	if m.datesErr != nil {
		return nil, m.datesErr
	}
	return m.dates, nil
}

func (m *mockWeightLogRepo) Latest(ctx context.Context, userID string) (*models.WeightLog, error) {
	if len(m.logs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &m.logs[0], nil
}

func (m *mockWeightLogRepo) Create(ctx context.Context, log *models.WeightLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = log
	return nil
}

func newWeightService(repo *mockWeightLogRepo, now time.Time) *WeightLogService {
	svc := NewWeightLogService(repo, validator.New(), zap.NewNop(), nil, 2)
	svc.now = func() time.Time { return now }
	return svc
}

func TestWeightLogServiceLog(t *testing.T) {
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, time.UTC)
	repo := &mockWeightLogRepo{}
	svc := newWeightService(repo, now)

	log, err := svc.Log(context.Background(), "u1", LogWeightRequest{WeightKg: 82.4})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, 82.4, log.WeightKg)
	assert.Equal(t, "u1", log.UserID)
}

func TestWeightLogServiceRejectsOutOfRange(t *testing.T) {
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, time.UTC)
	svc := newWeightService(&mockWeightLogRepo{}, now)

	for _, weight := range []float64{20, 19.5, 300, 412.7, -3} {
		_, err := svc.Log(context.Background(), "u1", LogWeightRequest{WeightKg: weight})
		require.Error(t, err, "weight %v", weight)
		assert.Equal(t, appErrors.ErrWeightOutOfRange.Code, appErrors.FromError(err).Code)
	}
}

func TestWeightLogServiceEnforcesWeeklyLimit(t *testing.T) {
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, time.UTC)
	repo := &mockWeightLogRepo{dates: []time.Time{
		time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC),
	}}
	svc := newWeightService(repo, now)

	_, err := svc.Log(context.Background(), "u1", LogWeightRequest{WeightKg: 82.4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWeekLimitReached.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestWeightLogServiceBackdatedEntryUsesItsOwnWeek(t *testing.T) {
	// Member is at the cap for the current week (Mon Jan 6 .. Sun Jan 12)
	// but backdates a missed weigh-in into the previous week.
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, time.UTC)
	repo := &mockWeightLogRepo{dates: []time.Time{
		time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC),
	}}
	svc := newWeightService(repo, now)

	log, err := svc.Log(context.Background(), "u1", LogWeightRequest{WeightKg: 82.4, LoggedDate: "2025-01-02"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC), log.LoggedDate)
}

func TestWeightLogServiceBackdatedEntryHitsItsOwnWeekCap(t *testing.T) {
	// The previous week (Mon Dec 30 .. Sun Jan 5) is already full; the
	// current week being empty does not make room for a backdated entry.
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, time.UTC)
	repo := &mockWeightLogRepo{dates: []time.Time{
		time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC),
	}}
	svc := newWeightService(repo, now)

	_, err := svc.Log(context.Background(), "u1", LogWeightRequest{WeightKg: 82.4, LoggedDate: "2025-01-02"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWeekLimitReached.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestWeightLogServiceWeeklyLimitWithLocalClock(t *testing.T) {
	// Stored dates are UTC midnights; the service clock runs in a non-UTC
	// zone. Boundary-Sunday entries still count against the week.
	east := time.FixedZone("UTC+12", 12*60*60)
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, east)
	repo := &mockWeightLogRepo{dates: []time.Time{
		time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC),
	}}
	svc := newWeightService(repo, now)

	_, err := svc.Log(context.Background(), "u1", LogWeightRequest{WeightKg: 82.4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWeekLimitReached.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestWeightLogServiceQuotaFailsOpen(t *testing.T) {
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, time.UTC)
	repo := &mockWeightLogRepo{datesErr: errors.New("connection refused")}
	svc := newWeightService(repo, now)

	quota, err := svc.Quota(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, quota.Count)
	assert.True(t, quota.CanLogMore)

	// A count failure must not lock the member out of logging.
	log, err := svc.Log(context.Background(), "u1", LogWeightRequest{WeightKg: 82.4})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestWeightLogServiceQuotaBounds(t *testing.T) {
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, time.UTC)
	repo := &mockWeightLogRepo{dates: []time.Time{
		time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
	}}
	svc := newWeightService(repo, now)

	quota, err := svc.Quota(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC), quota.WeekStart)
	assert.Equal(t, time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC), quota.WeekEnd)
	assert.Equal(t, 1, quota.Count)
	assert.Equal(t, 1, quota.Remaining)
	assert.True(t, quota.CanLogMore)
}

func TestWeightLogServiceLatestEmptyHistory(t *testing.T) {
	now := time.Date(2025, time.January, 9, 10, 0, 0, 0, time.UTC)
	svc := newWeightService(&mockWeightLogRepo{}, now)

	latest, err := svc.Latest(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
