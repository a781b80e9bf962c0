package models

import "time"

// WeightLog is an append-only weigh-in record. Rows are never mutated after
// creation; each one represents a physical weigh-in.
type WeightLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	WeightKg   float64   `db:"weight_kg" json:"weight_kg"`
	LoggedDate time.Time `db:"logged_date" json:"logged_date"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// WeightLogFilter narrows down weight log listings.
type WeightLogFilter struct {
	UserID   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// WeekQuota reports weekly weigh-in usage against the configured cap.
type WeekQuota struct {
	WeekStart  time.Time `json:"week_start"`
	WeekEnd    time.Time `json:"week_end"`
	Count      int       `json:"count"`
	MaxPerWeek int       `json:"max_per_week"`
	Remaining  int       `json:"remaining"`
	CanLogMore bool      `json:"can_log_more"`
}
