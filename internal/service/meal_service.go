package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/openai/openai-go/v2"
	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
	"github.com/fitcoach/fitcoach-api/pkg/jobs"
	"github.com/fitcoach/fitcoach-api/pkg/storage"
)

// JobTypeMealAnalysis identifies meal photo analysis jobs on the queue.
const JobTypeMealAnalysis = "meal_analysis"

const analysisPrompt = `You are a nutritionist. Estimate the nutrition content of the meal in the photo.
Respond with a JSON object containing exactly these numeric fields:
calories, protein_grams, carbs_grams, fat_grams. No other text.`

type mealRepository interface {
	List(ctx context.Context, filter models.MealFilter) ([]models.Meal, int, error)
	FindByID(ctx context.Context, id string) (*models.Meal, error)
	Create(ctx context.Context, meal *models.Meal) error
	UpdateNutrition(ctx context.Context, id string, nutrition models.MealNutrition) error
	UpdateAnalysisStatus(ctx context.Context, id string, status models.MealAnalysisStatus) error
}

// LogMealRequest carries the non-file fields of a meal submission.
type LogMealRequest struct {
	MealType    models.MealType `form:"meal_type" validate:"required"`
	Description *string         `form:"description"`
	EatenAt     string          `form:"eaten_at"`
}

// MealService records meals and runs asynchronous photo nutrition analysis.
type MealService struct {
	repo      mealRepository
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	ai        openai.Client
	model     string
	enabled   bool
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewMealService constructs a MealService instance. The analysis queue is
// attached separately because its handler is the service itself.
func NewMealService(repo mealRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, ai openai.Client, model string, enabled bool, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *MealService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &MealService{
		repo:      repo,
		store:     store,
		signer:    signer,
		ai:        ai,
		model:     model,
		enabled:   enabled,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// AttachQueue wires the analysis queue into the service.
func (s *MealService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// List returns a member's meals with pagination info.
func (s *MealService) List(ctx context.Context, filter models.MealFilter) ([]models.Meal, *models.Pagination, error) {
	if filter.MealType != "" && !filter.MealType.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid meal type filter")
	}
	meals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meals")
	}
	for i := range meals {
		s.attachPhotoURL(&meals[i])
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return meals, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single meal. Members can only read their own meals.
func (s *MealService) Get(ctx context.Context, id, actorID string, actorRole models.UserRole) (*models.Meal, error) {
	meal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meal")
	}
	if actorRole == models.RoleMember && meal.UserID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "members can only view their own meals")
	}
	s.attachPhotoURL(meal)
	return meal, nil
}

// Log stores a meal, saves the optional photo and enqueues analysis.
func (s *MealService) Log(ctx context.Context, userID string, req LogMealRequest, photo *multipart.FileHeader) (*models.Meal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid meal payload")
	}
	if !req.MealType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "meal_type must be BREAKFAST, LUNCH, DINNER or SNACK")
	}

	eatenAt := time.Now().UTC()
	if req.EatenAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.EatenAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "eaten_at must use RFC3339 format")
		}
		eatenAt = parsed.UTC()
	}

	meal := &models.Meal{
		ID:             uuid.NewString(),
		UserID:         userID,
		MealType:       req.MealType,
		Description:    req.Description,
		AnalysisStatus: models.MealAnalysisPending,
		EatenAt:        eatenAt,
	}

	if photo != nil {
		relPath, err := s.savePhoto(meal.ID, photo)
		if err != nil {
			return nil, err
		}
		meal.PhotoPath = &relPath
	} else {
		// No photo means nothing to analyze.
		meal.AnalysisStatus = models.MealAnalysisCompleted
	}

	if err := s.repo.Create(ctx, meal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create meal")
	}

	if meal.PhotoPath != nil {
		s.enqueueAnalysis(ctx, meal.ID)
	}

	s.attachPhotoURL(meal)
	s.logger.Info("meal logged",
		zap.String("meal_id", meal.ID),
		zap.String("user_id", userID),
		zap.String("meal_type", string(meal.MealType)),
		zap.Bool("has_photo", meal.PhotoPath != nil))
	return meal, nil
}

// Photo resolves a signed token and returns the photo file for streaming.
func (s *MealService) Photo(token string) (*models.Meal, io.ReadCloser, error) {
	mealID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid photo token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}
	return &models.Meal{ID: mealID}, file, nil
}

// HandleAnalysisJob is the queue handler for meal analysis jobs.
func (s *MealService) HandleAnalysisJob(ctx context.Context, job jobs.Job) error {
	mealID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	return s.analyze(ctx, mealID)
}

func (s *MealService) analyze(ctx context.Context, mealID string) error {
	meal, err := s.repo.FindByID(ctx, mealID)
	if err != nil {
		return fmt.Errorf("load meal %s: %w", mealID, err)
	}
	if meal.PhotoPath == nil {
		return nil
	}

	nutrition, err := s.analyzePhoto(ctx, *meal.PhotoPath)
	if err != nil {
		s.metrics.RecordMealAnalysis("failed")
		if statusErr := s.repo.UpdateAnalysisStatus(ctx, mealID, models.MealAnalysisFailed); statusErr != nil {
			s.logger.Error("failed to mark meal analysis failed",
				zap.String("meal_id", mealID),
				zap.Error(statusErr))
		}
		return fmt.Errorf("analyze meal %s: %w", mealID, err)
	}

	if err := s.repo.UpdateNutrition(ctx, mealID, *nutrition); err != nil {
		return fmt.Errorf("store nutrition for meal %s: %w", mealID, err)
	}
	s.metrics.RecordMealAnalysis("completed")
	s.logger.Info("meal analysis completed",
		zap.String("meal_id", mealID),
		zap.Float64("calories", nutrition.Calories))
	return nil
}

func (s *MealService) analyzePhoto(ctx context.Context, relPath string) (*models.MealNutrition, error) {
	data, err := s.store.Read(relPath)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", photoMIMEType(relPath), base64.StdEncoding.EncodeToString(data))

	chat, err := s.ai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analysisPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Estimate the nutrition of this meal."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		Model: s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("vision request: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("vision response had no choices")
	}

	var nutrition models.MealNutrition
	raw := strings.TrimSpace(chat.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &nutrition); err != nil {
		return nil, fmt.Errorf("parse vision response: %w", err)
	}
	return &nutrition, nil
}

func (s *MealService) enqueueAnalysis(ctx context.Context, mealID string) {
	if !s.enabled || s.queue == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeMealAnalysis,
		Payload: mealID,
	})
	if err != nil {
		s.logger.Error("failed to enqueue meal analysis", zap.String("meal_id", mealID), zap.Error(err))
		if statusErr := s.repo.UpdateAnalysisStatus(ctx, mealID, models.MealAnalysisFailed); statusErr != nil {
			s.logger.Error("failed to mark meal analysis failed", zap.String("meal_id", mealID), zap.Error(statusErr))
		}
	}
}

func (s *MealService) savePhoto(mealID string, photo *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(photo.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "photo must be a jpg, png or webp image")
	}

	src, err := photo.Open()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded photo")
	}
	defer src.Close()

	relPath, err := s.store.SaveStream(fmt.Sprintf("meals/%s%s", mealID, ext), src)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	return relPath, nil
}

func (s *MealService) attachPhotoURL(meal *models.Meal) {
	if meal.PhotoPath == nil || s.signer == nil {
		return
	}
	token, _, err := s.signer.Generate(meal.ID, *meal.PhotoPath)
	if err != nil {
		s.logger.Warn("failed to sign photo url", zap.String("meal_id", meal.ID), zap.Error(err))
		return
	}
	url := "/api/v1/meals/photos/" + token
	meal.PhotoURL = &url
}

func photoMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
