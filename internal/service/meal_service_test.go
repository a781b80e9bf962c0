package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcoach/fitcoach-api/internal/models"
	"github.com/fitcoach/fitcoach-api/pkg/storage"
)

type mockMealRepo struct {
	meals    map[string]*models.Meal
	statuses map[string]models.MealAnalysisStatus
}

func newMockMealRepo() *mockMealRepo {
	return &mockMealRepo{
		meals:    map[string]*models.Meal{},
		statuses: map[string]models.MealAnalysisStatus{},
	}
}

func (m *mockMealRepo) List(_ context.Context, filter models.MealFilter) ([]models.Meal, int, error) {
	var out []models.Meal
	for _, meal := range m.meals {
		if meal.UserID == filter.UserID {
			out = append(out, *meal)
		}
	}
	return out, len(out), nil
}

func (m *mockMealRepo) FindByID(_ context.Context, id string) (*models.Meal, error) {
	meal, ok := m.meals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *meal
	return &clone, nil
}

func (m *mockMealRepo) Create(_ context.Context, meal *models.Meal) error {
	stored := *meal
	m.meals[meal.ID] = &stored
	return nil
}

func (m *mockMealRepo) UpdateNutrition(_ context.Context, id string, nutrition models.MealNutrition) error {
	meal := m.meals[id]
	meal.Calories = &nutrition.Calories
	meal.AnalysisStatus = models.MealAnalysisCompleted
	return nil
}

func (m *mockMealRepo) UpdateAnalysisStatus(_ context.Context, id string, status models.MealAnalysisStatus) error {
	m.statuses[id] = status
	return nil
}

func newMealFixture(t *testing.T) (*MealService, *mockMealRepo, *storage.LocalStorage) {
	t.Helper()
	repo := newMockMealRepo()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	svc := NewMealService(repo, store, signer, openai.Client{}, "", false, nil, nil, nil)
	return svc, repo, store
}

func photoFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(int64(len(content)) + 4096)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() }) //nolint:errcheck
	return form.File["photo"][0]
}

func TestMealServiceLogWithoutPhoto(t *testing.T) {
	svc, repo, _ := newMealFixture(t)

	meal, err := svc.Log(context.Background(), "u1", LogMealRequest{
		MealType: models.MealTypeLunch,
		EatenAt:  "2025-03-10T12:30:00Z",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, models.MealAnalysisCompleted, meal.AnalysisStatus)
	assert.Nil(t, meal.PhotoPath)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC), meal.EatenAt)
	assert.Contains(t, repo.meals, meal.ID)
}

func TestMealServiceLogWithPhoto(t *testing.T) {
	svc, repo, store := newMealFixture(t)
	content := []byte("fake-jpeg-bytes")

	meal, err := svc.Log(context.Background(), "u1", LogMealRequest{
		MealType: models.MealTypeDinner,
	}, photoFileHeader(t, "dinner.jpg", content))

	require.NoError(t, err)
	assert.Equal(t, models.MealAnalysisPending, meal.AnalysisStatus)
	require.NotNil(t, meal.PhotoPath)
	require.NotNil(t, meal.PhotoURL)
	assert.True(t, strings.HasPrefix(*meal.PhotoURL, "/api/v1/meals/photos/"))

	saved, err := store.Read(*meal.PhotoPath)
	require.NoError(t, err)
	assert.Equal(t, content, saved)
	assert.Equal(t, models.MealAnalysisPending, repo.meals[meal.ID].AnalysisStatus)
}

func TestMealServiceLogRejectsBadMealType(t *testing.T) {
	svc, _, _ := newMealFixture(t)

	_, err := svc.Log(context.Background(), "u1", LogMealRequest{MealType: "BRUNCH"}, nil)
	require.Error(t, err)

	_, err = svc.Log(context.Background(), "u1", LogMealRequest{}, nil)
	require.Error(t, err)
}

func TestMealServiceLogRejectsBadEatenAt(t *testing.T) {
	svc, _, _ := newMealFixture(t)

	_, err := svc.Log(context.Background(), "u1", LogMealRequest{
		MealType: models.MealTypeSnack,
		EatenAt:  "10/03/2025",
	}, nil)
	require.Error(t, err)
}

func TestMealServiceLogRejectsBadPhotoExtension(t *testing.T) {
	svc, repo, _ := newMealFixture(t)

	_, err := svc.Log(context.Background(), "u1", LogMealRequest{
		MealType: models.MealTypeBreakfast,
	}, photoFileHeader(t, "clip.gif", []byte("gif-bytes")))

	require.Error(t, err)
	assert.Empty(t, repo.meals)
}

func TestMealServiceGetOwnership(t *testing.T) {
	svc, repo, _ := newMealFixture(t)
	repo.meals["m1"] = &models.Meal{ID: "m1", UserID: "u1", MealType: models.MealTypeLunch}

	_, err := svc.Get(context.Background(), "m1", "u2", models.RoleMember)
	require.Error(t, err)

	meal, err := svc.Get(context.Background(), "m1", "u2", models.RoleTrainer)
	require.NoError(t, err)
	assert.Equal(t, "m1", meal.ID)

	_, err = svc.Get(context.Background(), "missing", "u1", models.RoleMember)
	require.Error(t, err)
}

func TestMealServicePhotoRoundTrip(t *testing.T) {
	svc, _, _ := newMealFixture(t)
	content := []byte("png-bytes")

	meal, err := svc.Log(context.Background(), "u1", LogMealRequest{
		MealType: models.MealTypeSnack,
	}, photoFileHeader(t, "snack.png", content))
	require.NoError(t, err)
	require.NotNil(t, meal.PhotoURL)

	token := strings.TrimPrefix(*meal.PhotoURL, "/api/v1/meals/photos/")
	resolved, file, err := svc.Photo(token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	assert.Equal(t, meal.ID, resolved.ID)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	_, _, err = svc.Photo("not-a-valid-token")
	require.Error(t, err)
}
