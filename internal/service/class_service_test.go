package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

type mockClassRepo struct {
	classes map[string]models.Class
	created *models.Class
	updated *models.Class
	status  map[string]models.ClassStatus
	deleted []string
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	return nil, 0, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.classes == nil {
		m.classes = make(map[string]models.Class)
	}
	if class.ID == "" {
		class.ID = "new-class"
	}
	m.classes[class.ID] = *class
	m.created = class
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.ID] = *class
	m.updated = class
	return nil
}

func (m *mockClassRepo) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.ClassStatus)
	}
	m.status[id] = status
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func validCreateRequest() CreateClassRequest {
	return CreateClassRequest{
		Name:        "Morning HIIT",
		EventDate:   "2025-01-06",
		StartTime:   "07:00",
		EndTime:     "08:00",
		MaxCapacity: 20,
	}
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, validator.New(), zap.NewNop())

	class, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusScheduled, class.Status)
	assert.Equal(t, "07:00:00", class.StartTime)
	assert.Equal(t, "08:00:00", class.EndTime)
	assert.Equal(t, "2025-01-06", class.EventDate.Format("2006-01-02"))
}

func TestClassServiceCreateRecurring(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, validator.New(), zap.NewNop())

	req := validCreateRequest()
	req.IsRecurring = true
	req.RecurringDays = []int64{2, 4, 6}
	class, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, class.IsRecurring)
	assert.Len(t, class.RecurringDays, 3)
}

func TestClassServiceCreateRejectsBadRecurringDays(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, validator.New(), zap.NewNop())

	for _, days := range [][]int64{{0}, {8}, {-1, 3}, {2, 2}} {
		req := validCreateRequest()
		req.IsRecurring = true
		req.RecurringDays = days
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err, "days %v", days)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestClassServiceCreateRejectsInvertedTimes(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, validator.New(), zap.NewNop())

	req := validCreateRequest()
	req.StartTime = "09:00"
	req.EndTime = "08:00"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceUpdateCompletedClass(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Morning HIIT", Status: models.ClassStatusCompleted, StartTime: "07:00:00", EndTime: "08:00:00"},
	}}
	svc := NewClassService(repo, validator.New(), zap.NewNop())

	name := "Renamed"
	_, err := svc.Update(context.Background(), "c1", UpdateClassRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestClassServiceStatusTransitions(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusScheduled},
	}}
	svc := NewClassService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.UpdateStatus(context.Background(), "c1", models.ClassStatusInProgress))
	assert.Equal(t, models.ClassStatusInProgress, repo.status["c1"])

	// Scheduled cannot jump straight to completed.
	err := svc.UpdateStatus(context.Background(), "c1", models.ClassStatusCompleted)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestClassServiceDeleteOnlyScheduled(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusScheduled},
		"c2": {ID: "c2", Status: models.ClassStatusInProgress},
	}}
	svc := NewClassService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	assert.Contains(t, repo.deleted, "c1")

	err := svc.Delete(context.Background(), "c2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
