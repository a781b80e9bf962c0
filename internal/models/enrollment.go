package models

import "time"

// EnrollmentStatus describes the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusPaused    EnrollmentStatus = "PAUSED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusPaused, EnrollmentStatusCancelled:
		return true
	default:
		return false
	}
}

// Enrollment binds a member to a class. StartDate, when set, narrows the
// member's visible schedule to occurrences on or after that date even if the
// class anchor is earlier.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	ClassID   string           `db:"class_id" json:"class_id"`
	StartDate *time.Time       `db:"start_date" json:"start_date,omitempty"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	JoinedAt  time.Time        `db:"joined_at" json:"joined_at"`
	LeftAt    *time.Time       `db:"left_at" json:"left_at,omitempty"`
}

// EnrollmentDetail extends Enrollment with member and class context.
type EnrollmentDetail struct {
	Enrollment
	MemberName *string `db:"member_name" json:"member_name,omitempty"`
	ClassName  *string `db:"class_name" json:"class_name,omitempty"`
}

// EnrollmentFilter narrows down enrollment listings.
type EnrollmentFilter struct {
	UserID    string
	ClassID   string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
