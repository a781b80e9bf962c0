package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, userID, classID string) (bool, error)
	CountActiveByClass(ctx context.Context, classID string) (int, error)
	ListActiveByClass(ctx context.Context, classID string) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, leftAt *time.Time) error
}

type enrollmentClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// EnrollRequest carries the payload for enrolling a member in a class.
type EnrollRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	StartDate string `json:"start_date,omitempty"`
}

// EnrollmentService provides enrollment management use cases.
type EnrollmentService struct {
	repo      enrollmentRepository
	classes   enrollmentClassRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(repo enrollmentRepository, classes enrollmentClassRepository, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns enrollments matching the filter with pagination info.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Enroll joins a member to a class after capacity and duplicate checks.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Status == models.ClassStatusCompleted || class.Status == models.ClassStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class is no longer open for enrollment")
	}

	exists, err := s.repo.ExistsActive(ctx, req.UserID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "member is already enrolled in this class")
	}

	count, err := s.repo.CountActiveByClass(ctx, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class capacity")
	}
	if class.MaxCapacity > 0 && count >= class.MaxCapacity {
		return nil, appErrors.Clone(appErrors.ErrClassFull, "")
	}

	var startDate *time.Time
	if req.StartDate != "" {
		parsed, err := parseDate(req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must use YYYY-MM-DD format")
		}
		startDate = &parsed
	}

	enrollment := &models.Enrollment{
		UserID:    req.UserID,
		ClassID:   req.ClassID,
		StartDate: startDate,
		Status:    models.EnrollmentStatusActive,
		JoinedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("member enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("user_id", enrollment.UserID),
		zap.String("class_id", enrollment.ClassID))
	return enrollment, nil
}

// Pause suspends an active enrollment.
func (s *EnrollmentService) Pause(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	return s.transition(ctx, id, actorID, actorRole, models.EnrollmentStatusPaused)
}

// Resume reactivates a paused enrollment.
func (s *EnrollmentService) Resume(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	return s.transition(ctx, id, actorID, actorRole, models.EnrollmentStatusActive)
}

// Cancel terminates an enrollment. Cancelled enrollments stay cancelled.
func (s *EnrollmentService) Cancel(ctx context.Context, id, actorID string, actorRole models.UserRole) error {
	return s.transition(ctx, id, actorID, actorRole, models.EnrollmentStatusCancelled)
}

func (s *EnrollmentService) transition(ctx context.Context, id, actorID string, actorRole models.UserRole, target models.EnrollmentStatus) error {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if actorRole == models.RoleMember && enrollment.UserID != actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "members can only manage their own enrollments")
	}

	if enrollment.Status == models.EnrollmentStatusCancelled {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cancelled enrollments cannot change state")
	}
	switch target {
	case models.EnrollmentStatusPaused:
		if enrollment.Status != models.EnrollmentStatusActive {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "only active enrollments can be paused")
		}
	case models.EnrollmentStatusActive:
		if enrollment.Status != models.EnrollmentStatusPaused {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "only paused enrollments can be resumed")
		}
	}

	var leftAt *time.Time
	if target == models.EnrollmentStatusCancelled {
		now := time.Now().UTC()
		leftAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, id, target, leftAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	s.logger.Info("enrollment status changed",
		zap.String("enrollment_id", id),
		zap.String("from", string(enrollment.Status)),
		zap.String("to", string(target)))
	return nil
}

// Roster returns the active members of a class ordered by name.
func (s *EnrollmentService) Roster(ctx context.Context, classID string) ([]models.EnrollmentDetail, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	roster, err := s.repo.ListActiveByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class roster")
	}
	return roster, nil
}
