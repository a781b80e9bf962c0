package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcoach/fitcoach-api/internal/models"
)

type mockExportWeightLogs struct {
	logs []models.WeightLog
}

func (m *mockExportWeightLogs) List(_ context.Context, _ models.WeightLogFilter) ([]models.WeightLog, int, error) {
	return m.logs, len(m.logs), nil
}

type mockExportCheckIns struct {
	checkIns []models.CheckIn
}

func (m *mockExportCheckIns) List(_ context.Context, _ models.CheckInFilter) ([]models.CheckIn, int, error) {
	return m.checkIns, len(m.checkIns), nil
}

func TestExportWeightHistoryCSV(t *testing.T) {
	notes := "after workout"
	weights := &mockExportWeightLogs{logs: []models.WeightLog{
		{UserID: "u1", WeightKg: 81.2, LoggedDate: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), Notes: &notes},
		{UserID: "u1", WeightKg: 82.0, LoggedDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewExportService(weights, &mockExportCheckIns{}, &mockEnrollmentRepo{}, nil)

	file, err := svc.WeightHistory(context.Background(), "u1", ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.FileName, "weight-history-"))
	assert.True(t, strings.HasSuffix(file.FileName, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Weight (kg),Notes", lines[0])
	assert.Equal(t, "2025-03-12,81.2,after workout", lines[1])
	assert.Equal(t, "2025-03-05,82.0,", lines[2])
}

func TestExportWeightHistoryPDF(t *testing.T) {
	weights := &mockExportWeightLogs{logs: []models.WeightLog{
		{UserID: "u1", WeightKg: 80.5, LoggedDate: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)},
		{UserID: "u1", WeightKg: 83.0, LoggedDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewExportService(weights, &mockExportCheckIns{}, &mockEnrollmentRepo{}, nil)

	file, err := svc.WeightHistory(context.Background(), "u1", ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.FileName, ".pdf"))
	assert.True(t, len(file.Content) > 0)
	assert.Equal(t, "%PDF", string(file.Content[:4]))
}

func TestExportWeightHistoryRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockExportWeightLogs{}, &mockExportCheckIns{}, &mockEnrollmentRepo{}, nil)

	_, err := svc.WeightHistory(context.Background(), "u1", ExportFormat("xlsx"))
	require.Error(t, err)
}

func TestExportCheckInHistoryCSV(t *testing.T) {
	checkIns := &mockExportCheckIns{checkIns: []models.CheckIn{
		{UserID: "u1", SessionNumber: 12, CheckInTime: time.Date(2025, 3, 12, 18, 5, 0, 0, time.UTC)},
	}}
	svc := NewExportService(&mockExportWeightLogs{}, checkIns, &mockEnrollmentRepo{}, nil)

	file, err := svc.CheckInHistory(context.Background(), "u1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Session,Date,Time,Notes", lines[0])
	assert.Equal(t, "12,2025-03-12,18:05,", lines[1])
}

func TestExportClassRosterCSV(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {
			ID:       "e1",
			UserID:   "u1",
			ClassID:  "c1",
			Status:   models.EnrollmentStatusActive,
			JoinedAt: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		},
		"e2": {
			ID:      "e2",
			UserID:  "u2",
			ClassID: "c1",
			Status:  models.EnrollmentStatusCancelled,
		},
	}}
	svc := NewExportService(&mockExportWeightLogs{}, &mockExportCheckIns{}, repo, nil)

	file, err := svc.ClassRoster(context.Background(), "c1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Member,Joined,Start Date", lines[0])
	assert.Equal(t, "u1,2025-02-01,", lines[1])
}
