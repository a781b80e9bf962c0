package models

import "time"

// CheckIn is an append-only workout check-in record. SessionNumber is a
// display label derived from history length at creation time; it is not a
// uniqueness guarantee.
type CheckIn struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	ClassID       *string   `db:"class_id" json:"class_id,omitempty"`
	SessionNumber int       `db:"session_number" json:"session_number"`
	CheckInTime   time.Time `db:"check_in_time" json:"check_in_time"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CheckInFilter narrows down check-in listings.
type CheckInFilter struct {
	UserID   string
	ClassID  string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
