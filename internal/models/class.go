package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassStatus tracks the lifecycle of a class definition.
type ClassStatus string

const (
	ClassStatusScheduled  ClassStatus = "SCHEDULED"
	ClassStatusInProgress ClassStatus = "IN_PROGRESS"
	ClassStatusCompleted  ClassStatus = "COMPLETED"
	ClassStatusCancelled  ClassStatus = "CANCELLED"
)

// Valid returns true when the status is a supported value.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusScheduled, ClassStatusInProgress, ClassStatusCompleted, ClassStatusCancelled:
		return true
	default:
		return false
	}
}

// Weekday numbers used by RecurringDays. Sunday-first, matching the
// mobile clients' calendar encoding.
const (
	WeekdaySunday   = 1
	WeekdaySaturday = 7
)

// Class represents a bookable class or session template. EventDate is the
// anchor: the sole occurrence for one-off classes and the earliest possible
// occurrence for recurring ones.
type Class struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Description   *string       `db:"description" json:"description,omitempty"`
	TrainerID     *string       `db:"trainer_id" json:"trainer_id,omitempty"`
	EventDate     time.Time     `db:"event_date" json:"event_date"`
	StartTime     string        `db:"start_time" json:"start_time"`
	EndTime       string        `db:"end_time" json:"end_time"`
	IsRecurring   bool          `db:"is_recurring" json:"is_recurring"`
	RecurringDays pq.Int64Array `db:"recurring_days" json:"recurring_days"`
	MaxCapacity   int           `db:"max_capacity" json:"max_capacity"`
	Status        ClassStatus   `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with trainer info for responses.
type ClassDetail struct {
	Class
	TrainerName *string `db:"trainer_name" json:"trainer_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	TrainerID string
	Status    ClassStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
