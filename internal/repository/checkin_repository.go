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

// CheckInRepository handles persistence of workout check-ins. Rows are
// append-only; there is no update path.
type CheckInRepository struct {
	db *sqlx.DB
}

// NewCheckInRepository constructs the repository.
func NewCheckInRepository(db *sqlx.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// List returns check-ins filtered by the provided criteria, newest first.
func (r *CheckInRepository) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckIn, int, error) {
	base := `FROM check_ins`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("check_in_time >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("check_in_time <= $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT id, user_id, class_id, session_number, check_in_time, notes, created_at
        %s ORDER BY check_in_time DESC, id DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var checkIns []models.CheckIn
	if err := r.db.SelectContext(ctx, &checkIns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list check-ins: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count check-ins: %w", err)
	}
	return checkIns, total, nil
}

// CountByUser returns the lifetime check-in count for a user.
func (r *CheckInRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM check_ins WHERE user_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count check-ins: %w", err)
	}
	return count, nil
}

// ListTimesByUser returns a user's check-in timestamps, newest first.
func (r *CheckInRepository) ListTimesByUser(ctx context.Context, userID string, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 365
	}
	query := fmt.Sprintf(`SELECT check_in_time FROM check_ins WHERE user_id = $1
        ORDER BY check_in_time DESC, id DESC LIMIT %d`, limit)
	var times []time.Time
	if err := r.db.SelectContext(ctx, &times, query, userID); err != nil {
		return nil, fmt.Errorf("list check-in times: %w", err)
	}
	return times, nil
}

// Create persists a new check-in.
func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	if checkIn.ID == "" {
		checkIn.ID = uuid.NewString()
	}
	if checkIn.CheckInTime.IsZero() {
		checkIn.CheckInTime = time.Now().UTC()
	}
	if checkIn.CreatedAt.IsZero() {
		checkIn.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO check_ins (id, user_id, class_id, session_number, check_in_time, notes, created_at)
        VALUES (:id, :user_id, :class_id, :session_number, :check_in_time, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, checkIn); err != nil {
		return fmt.Errorf("create check-in: %w", err)
	}
	return nil
}
