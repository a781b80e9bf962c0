package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/fitcoach/fitcoach-api/internal/models"
)

func TestWeightLogRepositoryListDatesInRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightLogRepository(db)

	from := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"logged_date"}).
		AddRow(time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)).
		AddRow(time.Date(2025, time.January, 11, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT logged_date FROM weight_logs")).
		WithArgs("user-1", from, to).
		WillReturnRows(rows)

	dates, err := repo.ListDatesInRange(context.Background(), "user-1", from, to)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightLogRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weight_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.WeightLog{
		UserID:     "user-1",
		WeightKg:   72.5,
		LoggedDate: time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC),
	}
	err := repo.Create(context.Background(), log)
	require.NoError(t, err)
	require.NotEmpty(t, log.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
