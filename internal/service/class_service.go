package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error
	Delete(ctx context.Context, id string) error
}

// CreateClassRequest carries the payload for creating a class.
type CreateClassRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=120"`
	Description   *string `json:"description,omitempty"`
	TrainerID     *string `json:"trainer_id,omitempty"`
	EventDate     string  `json:"event_date" validate:"required"`
	StartTime     string  `json:"start_time" validate:"required"`
	EndTime       string  `json:"end_time" validate:"required"`
	IsRecurring   bool    `json:"is_recurring"`
	RecurringDays []int64 `json:"recurring_days,omitempty"`
	MaxCapacity   int     `json:"max_capacity" validate:"required,min=1"`
}

// UpdateClassRequest carries the payload for updating a class.
type UpdateClassRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description   *string `json:"description,omitempty"`
	TrainerID     *string `json:"trainer_id,omitempty"`
	EventDate     *string `json:"event_date,omitempty"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	IsRecurring   *bool   `json:"is_recurring,omitempty"`
	RecurringDays []int64 `json:"recurring_days,omitempty"`
	MaxCapacity   *int    `json:"max_capacity,omitempty" validate:"omitempty,min=1"`
}

// ClassService provides class management use cases.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService instance.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns classes matching the filter with pagination info.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single class by ID.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create validates and stores a new class definition.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	eventDate, err := parseDate(req.EventDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event_date must use YYYY-MM-DD format")
	}
	startTime, err := normalizeClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must use HH:MM format")
	}
	endTime, err := normalizeClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must use HH:MM format")
	}
	if endTime <= startTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	if err := validateRecurringDays(req.IsRecurring, req.RecurringDays); err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:          req.Name,
		Description:   req.Description,
		TrainerID:     req.TrainerID,
		EventDate:     eventDate,
		StartTime:     startTime,
		EndTime:       endTime,
		IsRecurring:   req.IsRecurring,
		RecurringDays: pq.Int64Array(req.RecurringDays),
		MaxCapacity:   req.MaxCapacity,
		Status:        models.ClassStatusScheduled,
	}

	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.logger.Info("class created",
		zap.String("class_id", class.ID),
		zap.String("name", class.Name),
		zap.Bool("recurring", class.IsRecurring))
	return class, nil
}

// Update applies partial changes to an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if class.Status == models.ClassStatusCompleted || class.Status == models.ClassStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "completed or cancelled classes cannot be modified")
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Description != nil {
		class.Description = req.Description
	}
	if req.TrainerID != nil {
		class.TrainerID = req.TrainerID
	}
	if req.EventDate != nil {
		eventDate, err := parseDate(*req.EventDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "event_date must use YYYY-MM-DD format")
		}
		class.EventDate = eventDate
	}
	if req.StartTime != nil {
		startTime, err := normalizeClock(*req.StartTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must use HH:MM format")
		}
		class.StartTime = startTime
	}
	if req.EndTime != nil {
		endTime, err := normalizeClock(*req.EndTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must use HH:MM format")
		}
		class.EndTime = endTime
	}
	if class.EndTime <= class.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	if req.IsRecurring != nil {
		class.IsRecurring = *req.IsRecurring
	}
	if req.RecurringDays != nil {
		class.RecurringDays = pq.Int64Array(req.RecurringDays)
	}
	if err := validateRecurringDays(class.IsRecurring, class.RecurringDays); err != nil {
		return nil, err
	}
	if req.MaxCapacity != nil {
		class.MaxCapacity = *req.MaxCapacity
	}

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// UpdateStatus transitions a class between lifecycle states.
func (s *ClassService) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid class status")
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if !statusTransitionAllowed(class.Status, status) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("cannot transition class from %s to %s", class.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}

	s.logger.Info("class status updated",
		zap.String("class_id", id),
		zap.String("from", string(class.Status)),
		zap.String("to", string(status)))
	return nil
}

// Delete removes a class. Only scheduled classes may be deleted.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Status != models.ClassStatusScheduled {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only scheduled classes can be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

func statusTransitionAllowed(from, to models.ClassStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.ClassStatusScheduled:
		return to == models.ClassStatusInProgress || to == models.ClassStatusCancelled
	case models.ClassStatusInProgress:
		return to == models.ClassStatusCompleted || to == models.ClassStatusCancelled
	default:
		return false
	}
}

// validateRecurringDays checks the weekday encoding: Sunday is 1 and
// Saturday is 7. Duplicate entries are rejected alongside out-of-range ones.
func validateRecurringDays(isRecurring bool, days []int64) error {
	if !isRecurring {
		return nil
	}
	seen := make(map[int64]struct{}, len(days))
	for _, d := range days {
		if d < models.WeekdaySunday || d > models.WeekdaySaturday {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("recurring day %d out of range 1..7", d))
		}
		if _, ok := seen[d]; ok {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("recurring day %d listed more than once", d))
		}
		seen[d] = struct{}{}
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// normalizeClock accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func normalizeClock(value string) (string, error) {
	if t, err := time.Parse("15:04:05", value); err == nil {
		return t.Format("15:04:05"), nil
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return "", err
	}
	return t.Format("15:04:05"), nil
}
