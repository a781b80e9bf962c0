package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
)

type mockCheckInRepo struct {
	count   int
	created []*models.CheckIn
}

func (m *mockCheckInRepo) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckIn, int, error) {
	return nil, 0, nil
}

func (m *mockCheckInRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	return m.count, nil
}

func (m *mockCheckInRepo) Create(ctx context.Context, checkIn *models.CheckIn) error {
	m.created = append(m.created, checkIn)
	m.count++
	return nil
}

func TestCheckInServiceFirstSession(t *testing.T) {
	repo := &mockCheckInRepo{}
	classes := &mockClassReader{classes: map[string]*models.Class{"c1": openClass("c1", 10)}}
	svc := NewCheckInService(repo, classes, validator.New(), zap.NewNop(), nil)

	checkIn, err := svc.CheckIn(context.Background(), "u1", CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, checkIn.SessionNumber)
	assert.False(t, checkIn.CheckInTime.IsZero())
}

func TestCheckInServiceSessionNumbersGrow(t *testing.T) {
	repo := &mockCheckInRepo{count: 7}
	classes := &mockClassReader{classes: map[string]*models.Class{"c1": openClass("c1", 10)}}
	svc := NewCheckInService(repo, classes, validator.New(), zap.NewNop(), nil)

	first, err := svc.CheckIn(context.Background(), "u1", CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, 8, first.SessionNumber)

	second, err := svc.CheckIn(context.Background(), "u1", CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, 9, second.SessionNumber)
}

func TestCheckInServiceWithClass(t *testing.T) {
	repo := &mockCheckInRepo{}
	classes := &mockClassReader{classes: map[string]*models.Class{"c1": openClass("c1", 10)}}
	svc := NewCheckInService(repo, classes, validator.New(), zap.NewNop(), nil)

	classID := "c1"
	checkIn, err := svc.CheckIn(context.Background(), "u1", CheckInRequest{ClassID: &classID})
	require.NoError(t, err)
	require.NotNil(t, checkIn.ClassID)
	assert.Equal(t, "c1", *checkIn.ClassID)
}

func TestCheckInServiceUnknownClass(t *testing.T) {
	repo := &mockCheckInRepo{}
	classes := &mockClassReader{classes: map[string]*models.Class{}}
	svc := NewCheckInService(repo, classes, validator.New(), zap.NewNop(), nil)

	classID := "ghost"
	_, err := svc.CheckIn(context.Background(), "u1", CheckInRequest{ClassID: &classID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}
