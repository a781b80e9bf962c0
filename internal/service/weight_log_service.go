package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	"github.com/fitcoach/fitcoach-api/internal/schedule"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

type weightLogRepository interface {
	List(ctx context.Context, filter models.WeightLogFilter) ([]models.WeightLog, int, error)
	ListDatesInRange(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error)
	Latest(ctx context.Context, userID string) (*models.WeightLog, error)
	Create(ctx context.Context, log *models.WeightLog) error
}

// LogWeightRequest carries the payload for recording a weigh-in.
type LogWeightRequest struct {
	WeightKg   float64 `json:"weight_kg" validate:"required"`
	LoggedDate string  `json:"logged_date,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// WeightLogService records weigh-ins against a weekly quota.
type WeightLogService struct {
	repo       weightLogRepository
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
	maxPerWeek int
	now        func() time.Time
}

// NewWeightLogService constructs a WeightLogService instance.
func NewWeightLogService(repo weightLogRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, maxPerWeek int) *WeightLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if maxPerWeek <= 0 {
		maxPerWeek = 2
	}
	return &WeightLogService{
		repo:       repo,
		validator:  validate,
		logger:     logger,
		metrics:    metrics,
		maxPerWeek: maxPerWeek,
		now:        func() time.Time { return time.Now() },
	}
}

// List returns a member's weigh-in history, newest first.
func (s *WeightLogService) List(ctx context.Context, filter models.WeightLogFilter) ([]models.WeightLog, *models.Pagination, error) {
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weight logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Latest returns the most recent weigh-in, or nil without error when the
// member has never logged.
func (s *WeightLogService) Latest(ctx context.Context, userID string) (*models.WeightLog, error) {
	log, err := s.repo.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest weight log")
	}
	return log, nil
}

// Quota reports the member's weigh-in usage for the current Monday-first week.
// When the count query fails the quota fails open: the member is allowed to
// log rather than being locked out by an infrastructure fault.
func (s *WeightLogService) Quota(ctx context.Context, userID string) (*models.WeekQuota, error) {
	return s.quotaFor(ctx, userID, s.now())
}

// quotaFor evaluates the quota for the week containing ref.
func (s *WeightLogService) quotaFor(ctx context.Context, userID string, ref time.Time) (*models.WeekQuota, error) {
	weekStart, weekEnd := schedule.WeekBounds(ref)

	count := 0
	dates, err := s.repo.ListDatesInRange(ctx, userID, weekStart, weekEnd)
	if err != nil {
		s.logger.Warn("weekly weigh-in count unavailable, failing open",
			zap.String("user_id", userID),
			zap.Error(err))
	} else {
		count = schedule.CountInWeek(dates, ref)
	}

	return &models.WeekQuota{
		WeekStart:  weekStart,
		WeekEnd:    weekEnd,
		Count:      count,
		MaxPerWeek: s.maxPerWeek,
		Remaining:  schedule.Remaining(s.maxPerWeek, count),
		CanLogMore: schedule.CanLogMore(count, s.maxPerWeek),
	}, nil
}

// Log records a weigh-in after range validation and the weekly quota check.
// The quota is evaluated for the week containing the logged date, so a
// backdated entry counts against its own week rather than the current one.
func (s *WeightLogService) Log(ctx context.Context, userID string, req LogWeightRequest) (*models.WeightLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weight payload")
	}

	weight, err := schedule.ValidateWeight(req.WeightKg)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrWeightOutOfRange, "")
	}

	loggedDate := s.now()
	if req.LoggedDate != "" {
		parsed, err := parseDate(req.LoggedDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "logged_date must use YYYY-MM-DD format")
		}
		loggedDate = parsed
	}

	quota, err := s.quotaFor(ctx, userID, loggedDate)
	if err != nil {
		return nil, err
	}
	if !quota.CanLogMore {
		return nil, appErrors.Clone(appErrors.ErrWeekLimitReached, "")
	}

	log := &models.WeightLog{
		UserID:     userID,
		WeightKg:   weight,
		LoggedDate: loggedDate,
		Notes:      req.Notes,
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create weight log")
	}

	s.metrics.RecordWeighIn()
	s.logger.Info("weight logged",
		zap.String("user_id", userID),
		zap.Float64("weight_kg", weight))
	return log, nil
}
