package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitcoach/fitcoach-api/internal/models"
)

// MealRepository handles persistence of logged meals.
type MealRepository struct {
	db *sqlx.DB
}

// NewMealRepository constructs the repository.
func NewMealRepository(db *sqlx.DB) *MealRepository {
	return &MealRepository{db: db}
}

const mealColumns = `id, user_id, meal_type, description, photo_path, analysis_status,
        calories, protein_grams, carbs_grams, fat_grams, eaten_at, created_at, updated_at`

// List returns meals filtered by the provided criteria, newest first.
func (r *MealRepository) List(ctx context.Context, filter models.MealFilter) ([]models.Meal, int, error) {
	base := `FROM meals`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.MealType != "" {
		conditions = append(conditions, fmt.Sprintf("meal_type = $%d", len(args)+1))
		args = append(args, filter.MealType)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("eaten_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("eaten_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY eaten_at DESC, id DESC LIMIT %d OFFSET %d`,
		mealColumns, base+clause, size, offset)

	var meals []models.Meal
	if err := r.db.SelectContext(ctx, &meals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list meals: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count meals: %w", err)
	}
	return meals, total, nil
}

// FindByID returns a meal by its ID.
func (r *MealRepository) FindByID(ctx context.Context, id string) (*models.Meal, error) {
	query := fmt.Sprintf(`SELECT %s FROM meals WHERE id = $1`, mealColumns)
	var meal models.Meal
	if err := r.db.GetContext(ctx, &meal, query, id); err != nil {
		return nil, err
	}
	return &meal, nil
}

// Create persists a new meal record.
func (r *MealRepository) Create(ctx context.Context, meal *models.Meal) error {
	if meal.ID == "" {
		meal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = now
	}
	meal.UpdatedAt = now
	if meal.AnalysisStatus == "" {
		meal.AnalysisStatus = models.MealAnalysisPending
	}
	const query = `INSERT INTO meals (id, user_id, meal_type, description, photo_path, analysis_status,
        calories, protein_grams, carbs_grams, fat_grams, eaten_at, created_at, updated_at)
        VALUES (:id, :user_id, :meal_type, :description, :photo_path, :analysis_status,
        :calories, :protein_grams, :carbs_grams, :fat_grams, :eaten_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, meal); err != nil {
		return fmt.Errorf("create meal: %w", err)
	}
	return nil
}

// UpdateNutrition stores the analysis result and marks the meal completed.
func (r *MealRepository) UpdateNutrition(ctx context.Context, id string, nutrition models.MealNutrition) error {
	const query = `UPDATE meals SET analysis_status = $2, calories = $3, protein_grams = $4,
        carbs_grams = $5, fat_grams = $6, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.MealAnalysisCompleted,
		nutrition.Calories, nutrition.ProteinGrams, nutrition.CarbsGrams, nutrition.FatGrams); err != nil {
		return fmt.Errorf("update meal nutrition: %w", err)
	}
	return nil
}

// UpdateAnalysisStatus transitions the analysis state without touching
// nutrition values.
func (r *MealRepository) UpdateAnalysisStatus(ctx context.Context, id string, status models.MealAnalysisStatus) error {
	const query = `UPDATE meals SET analysis_status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update meal analysis status: %w", err)
	}
	return nil
}
