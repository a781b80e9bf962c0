package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	"github.com/fitcoach/fitcoach-api/internal/schedule"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

// maxViewportDays caps calendar expansion to roughly two months per request.
const maxViewportDays = 62

type scheduleEnrollmentRepository interface {
	ListActiveByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
}

type scheduleClassRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Class, error)
}

// ScheduleEntry is one calendar slot in a member's schedule.
type ScheduleEntry struct {
	ClassID   string                    `json:"class_id"`
	ClassName string                    `json:"class_name"`
	Date      string                    `json:"date"`
	StartTime string                    `json:"start_time"`
	EndTime   string                    `json:"end_time"`
	Source    schedule.OccurrenceSource `json:"source"`
	Status    models.ClassStatus        `json:"class_status"`
}

// ScheduleService assembles member calendars from enrollments and classes.
type ScheduleService struct {
	enrollments scheduleEnrollmentRepository
	classes     scheduleClassRepository
	logger      *zap.Logger
}

// NewScheduleService constructs a ScheduleService instance.
func NewScheduleService(enrollments scheduleEnrollmentRepository, classes scheduleClassRepository, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{enrollments: enrollments, classes: classes, logger: logger}
}

// MemberSchedule returns all class occurrences visible to the member within
// [from, to]. Paused and cancelled enrollments contribute nothing; an
// enrollment start date hides earlier occurrences.
func (s *ScheduleService) MemberSchedule(ctx context.Context, userID string, from, to time.Time) ([]ScheduleEntry, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to date precedes from date")
	}
	if to.Sub(from) > maxViewportDays*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range exceeds the 62 day viewport")
	}

	enrollments, err := s.enrollments.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if len(enrollments) == 0 {
		return []ScheduleEntry{}, nil
	}

	classIDs := make([]string, 0, len(enrollments))
	byClass := make(map[string]models.Enrollment, len(enrollments))
	for _, e := range enrollments {
		if _, ok := byClass[e.ClassID]; !ok {
			classIDs = append(classIDs, e.ClassID)
		}
		byClass[e.ClassID] = e
	}

	classes, err := s.classes.FindByIDs(ctx, classIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}

	entries := make([]ScheduleEntry, 0)
	for _, class := range classes {
		if class.Status == models.ClassStatusCancelled {
			continue
		}
		enrollment, ok := byClass[class.ID]
		if !ok {
			continue
		}
		occs := schedule.Expand(class, from, to)
		occs = schedule.FilterWindow(occs, enrollment, class)
		for _, occ := range occs {
			entries = append(entries, ScheduleEntry{
				ClassID:   class.ID,
				ClassName: class.Name,
				Date:      occ.Date.Format("2006-01-02"),
				StartTime: class.StartTime,
				EndTime:   class.EndTime,
				Source:    occ.Source,
				Status:    class.Status,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		return entries[i].ClassName < entries[j].ClassName
	})

	return entries, nil
}

// TodaySchedule is a convenience wrapper returning the member's occurrences
// for the current day.
func (s *ScheduleService) TodaySchedule(ctx context.Context, userID string, now time.Time) ([]ScheduleEntry, error) {
	return s.MemberSchedule(ctx, userID, now, now)
}
