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

// WeightLogRepository handles persistence of weigh-in records. Rows are
// append-only; there is no update path.
type WeightLogRepository struct {
	db *sqlx.DB
}

// NewWeightLogRepository constructs the repository.
func NewWeightLogRepository(db *sqlx.DB) *WeightLogRepository {
	return &WeightLogRepository{db: db}
}

// List returns weigh-ins filtered by the provided criteria, newest first.
func (r *WeightLogRepository) List(ctx context.Context, filter models.WeightLogFilter) ([]models.WeightLog, int, error) {
	base := `FROM weight_logs`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("logged_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("logged_date <= $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT id, user_id, weight_kg, logged_date, notes, created_at
        %s ORDER BY logged_date DESC, id DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var logs []models.WeightLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list weight logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count weight logs: %w", err)
	}
	return logs, total, nil
}

// ListDatesInRange returns the logged dates for a user inside [from, to].
func (r *WeightLogRepository) ListDatesInRange(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	const query = `SELECT logged_date FROM weight_logs
        WHERE user_id = $1 AND logged_date >= $2 AND logged_date <= $3 ORDER BY logged_date ASC`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("list weight log dates: %w", err)
	}
	return dates, nil
}

// Latest returns the most recent weigh-in for a user.
func (r *WeightLogRepository) Latest(ctx context.Context, userID string) (*models.WeightLog, error) {
	const query = `SELECT id, user_id, weight_kg, logged_date, notes, created_at
        FROM weight_logs WHERE user_id = $1 ORDER BY logged_date DESC, id DESC LIMIT 1`
	var log models.WeightLog
	if err := r.db.GetContext(ctx, &log, query, userID); err != nil {
		return nil, err
	}
	return &log, nil
}

// Create persists a new weigh-in.
func (r *WeightLogRepository) Create(ctx context.Context, log *models.WeightLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO weight_logs (id, user_id, weight_kg, logged_date, notes, created_at)
        VALUES (:id, :user_id, :weight_kg, :logged_date, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create weight log: %w", err)
	}
	return nil
}
