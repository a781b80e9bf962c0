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

type checkInRepository interface {
	List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckIn, int, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, checkIn *models.CheckIn) error
}

type checkInClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// CheckInRequest carries the payload for recording a workout check-in.
type CheckInRequest struct {
	ClassID *string `json:"class_id,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// CheckInService records workout check-ins with derived session numbers.
type CheckInService struct {
	repo      checkInRepository
	classes   checkInClassRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewCheckInService constructs a CheckInService instance.
func NewCheckInService(repo checkInRepository, classes checkInClassRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *CheckInService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CheckInService{repo: repo, classes: classes, validator: validate, logger: logger, metrics: metrics}
}

// List returns check-ins matching the filter with pagination info.
func (s *CheckInService) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckIn, *models.Pagination, error) {
	checkIns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list check-ins")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return checkIns, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// CheckIn records a workout check-in. The session number is the history
// length plus one at the moment of writing; concurrent check-ins may share a
// number, which is acceptable for a display label.
func (s *CheckInService) CheckIn(ctx context.Context, userID string, req CheckInRequest) (*models.CheckIn, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}

	if req.ClassID != nil && *req.ClassID != "" {
		if _, err := s.classes.FindByID(ctx, *req.ClassID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count check-ins")
	}

	checkIn := &models.CheckIn{
		UserID:        userID,
		ClassID:       req.ClassID,
		SessionNumber: schedule.NextSessionNumber(count),
		CheckInTime:   time.Now().UTC(),
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, checkIn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create check-in")
	}

	s.metrics.RecordCheckIn()
	s.logger.Info("member checked in",
		zap.String("user_id", userID),
		zap.Int("session_number", checkIn.SessionNumber))
	return checkIn, nil
}
