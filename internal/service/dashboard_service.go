package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

type dashboardCheckInRepository interface {
	CountByUser(ctx context.Context, userID string) (int, error)
	ListTimesByUser(ctx context.Context, userID string, limit int) ([]time.Time, error)
}

type dashboardWeightLogRepository interface {
	List(ctx context.Context, filter models.WeightLogFilter) ([]models.WeightLog, int, error)
}

type dashboardEnrollmentRepository interface {
	ListActiveByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
}

// DashboardService aggregates the member home screen summary.
type DashboardService struct {
	checkIns    dashboardCheckInRepository
	weightLogs  dashboardWeightLogRepository
	enrollments dashboardEnrollmentRepository
	weights     *WeightLogService
	schedules   *ScheduleService
	cache       *CacheService
	logger      *zap.Logger
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(
	checkIns dashboardCheckInRepository,
	weightLogs dashboardWeightLogRepository,
	enrollments dashboardEnrollmentRepository,
	weights *WeightLogService,
	schedules *ScheduleService,
	cache *CacheService,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		checkIns:    checkIns,
		weightLogs:  weightLogs,
		enrollments: enrollments,
		weights:     weights,
		schedules:   schedules,
		cache:       cache,
		logger:      logger,
		cacheTTL:    cacheTTL,
		now:         func() time.Time { return time.Now() },
	}
}

func dashboardCacheKey(userID string) string {
	return fmt.Sprintf("dashboard:summary:%s", userID)
}

// Summary returns the member's dashboard summary, served from cache when
// available.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	key := dashboardCacheKey(userID)
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	summary, err := s.build(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.String("user_id", userID), zap.Error(err))
	}
	return summary, nil
}

// Invalidate drops the cached summary for a member, called after writes that
// change the numbers.
func (s *DashboardService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *DashboardService) build(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	now := s.now()

	totalCheckIns, err := s.checkIns.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count check-ins")
	}

	times, err := s.checkIns.ListTimesByUser(ctx, userID, 365)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load check-in history")
	}
	streak := currentStreak(times, now)

	logs, _, err := s.weightLogs.List(ctx, models.WeightLogFilter{UserID: userID, Page: 1, PageSize: 2})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weight history")
	}

	var latestWeight *float64
	var latestDate *time.Time
	var delta *float64
	if len(logs) > 0 {
		latestWeight = &logs[0].WeightKg
		latestDate = &logs[0].LoggedDate
		if len(logs) > 1 {
			d := logs[0].WeightKg - logs[1].WeightKg
			delta = &d
		}
	}

	quota, err := s.weights.Quota(ctx, userID)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	today, err := s.schedules.TodaySchedule(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &models.DashboardSummary{
		UserID:           userID,
		TotalCheckIns:    totalCheckIns,
		CurrentStreak:    streak,
		LatestWeightKg:   latestWeight,
		LatestWeighDate:  latestDate,
		WeightDeltaKg:    delta,
		WeekQuota:        *quota,
		TodayClasses:     len(today),
		ActiveEnrollment: len(enrollments),
		GeneratedAt:      now.UTC(),
	}, nil
}

// currentStreak counts consecutive calendar days with at least one check-in,
// walking backwards from today. A streak survives when the most recent
// check-in was yesterday; it resets once a full day is skipped.
func currentStreak(times []time.Time, now time.Time) int {
	if len(times) == 0 {
		return 0
	}

	days := make(map[string]struct{}, len(times))
	for _, t := range times {
		days[t.In(now.Location()).Format("2006-01-02")] = struct{}{}
	}

	cursor := now
	if _, ok := days[cursor.Format("2006-01-02")]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
		if _, ok := days[cursor.Format("2006-01-02")]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := days[cursor.Format("2006-01-02")]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
