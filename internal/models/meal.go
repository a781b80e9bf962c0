package models

import "time"

// MealAnalysisStatus tracks the AI nutrition analysis lifecycle.
type MealAnalysisStatus string

const (
	MealAnalysisPending   MealAnalysisStatus = "PENDING"
	MealAnalysisCompleted MealAnalysisStatus = "COMPLETED"
	MealAnalysisFailed    MealAnalysisStatus = "FAILED"
)

// MealType classifies when the meal was eaten.
type MealType string

const (
	MealTypeBreakfast MealType = "BREAKFAST"
	MealTypeLunch     MealType = "LUNCH"
	MealTypeDinner    MealType = "DINNER"
	MealTypeSnack     MealType = "SNACK"
)

// Valid returns true when the meal type is a supported value.
func (t MealType) Valid() bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	default:
		return false
	}
}

// Meal is a logged meal, optionally with a photo submitted for AI nutrition
// analysis. Nutrition fields stay nil until analysis completes.
type Meal struct {
	ID             string             `db:"id" json:"id"`
	UserID         string             `db:"user_id" json:"user_id"`
	MealType       MealType           `db:"meal_type" json:"meal_type"`
	Description    *string            `db:"description" json:"description,omitempty"`
	PhotoPath      *string            `db:"photo_path" json:"-"`
	PhotoURL       *string            `db:"-" json:"photo_url,omitempty"`
	AnalysisStatus MealAnalysisStatus `db:"analysis_status" json:"analysis_status"`
	Calories       *float64           `db:"calories" json:"calories,omitempty"`
	ProteinGrams   *float64           `db:"protein_grams" json:"protein_grams,omitempty"`
	CarbsGrams     *float64           `db:"carbs_grams" json:"carbs_grams,omitempty"`
	FatGrams       *float64           `db:"fat_grams" json:"fat_grams,omitempty"`
	EatenAt        time.Time          `db:"eaten_at" json:"eaten_at"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// MealNutrition is the structured result returned by the vision model.
type MealNutrition struct {
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	CarbsGrams   float64 `json:"carbs_grams"`
	FatGrams     float64 `json:"fat_grams"`
}

// MealFilter narrows down meal listings.
type MealFilter struct {
	UserID   string
	MealType MealType
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
