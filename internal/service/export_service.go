package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fitcoach/fitcoach-api/internal/models"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
	"github.com/fitcoach/fitcoach-api/pkg/export"
)

// ExportFormat enumerates supported export renderings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportWeightLogRepository interface {
	List(ctx context.Context, filter models.WeightLogFilter) ([]models.WeightLog, int, error)
}

type exportCheckInRepository interface {
	List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckIn, int, error)
}

// ExportFile is a rendered export ready to be written to the response.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders member progress data as CSV or PDF downloads.
type ExportService struct {
	weightLogs  exportWeightLogRepository
	checkIns    exportCheckInRepository
	enrollments enrollmentRepository
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(weightLogs exportWeightLogRepository, checkIns exportCheckInRepository, enrollments enrollmentRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		weightLogs:  weightLogs,
		checkIns:    checkIns,
		enrollments: enrollments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// exportPageSize bounds export queries; progress exports are capped rather
// than paginated.
const exportPageSize = 100

// WeightHistory renders a member's weigh-in history.
func (s *ExportService) WeightHistory(ctx context.Context, userID string, format ExportFormat) (*ExportFile, error) {
	logs, _, err := s.weightLogs.List(ctx, models.WeightLogFilter{UserID: userID, Page: 1, PageSize: exportPageSize})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weight history")
	}

	data := export.Dataset{Headers: []string{"Date", "Weight (kg)", "Notes"}}
	for _, log := range logs {
		notes := ""
		if log.Notes != nil {
			notes = *log.Notes
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":        log.LoggedDate.Format("2006-01-02"),
			"Weight (kg)": fmt.Sprintf("%.1f", log.WeightKg),
			"Notes":       notes,
		})
	}

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return &ExportFile{
			FileName:    exportFileName("weight-history", "csv"),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		summary := []string{fmt.Sprintf("Entries: %d", len(logs))}
		if len(logs) > 0 {
			latest := logs[0]
			oldest := logs[len(logs)-1]
			summary = append(summary,
				fmt.Sprintf("Latest: %.1f kg on %s", latest.WeightKg, latest.LoggedDate.Format("2006-01-02")),
				fmt.Sprintf("Change: %+.1f kg since %s", latest.WeightKg-oldest.WeightKg, oldest.LoggedDate.Format("2006-01-02")))
		}
		content, err := s.pdf.Render(data, "Weight Progress Report", summary)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return &ExportFile{
			FileName:    exportFileName("weight-history", "pdf"),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// CheckInHistory renders a member's check-in history as CSV.
func (s *ExportService) CheckInHistory(ctx context.Context, userID string) (*ExportFile, error) {
	checkIns, _, err := s.checkIns.List(ctx, models.CheckInFilter{UserID: userID, Page: 1, PageSize: exportPageSize})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load check-in history")
	}

	data := export.Dataset{Headers: []string{"Session", "Date", "Time", "Notes"}}
	for _, c := range checkIns {
		notes := ""
		if c.Notes != nil {
			notes = *c.Notes
		}
		data.Rows = append(data.Rows, map[string]string{
			"Session": fmt.Sprintf("%d", c.SessionNumber),
			"Date":    c.CheckInTime.Format("2006-01-02"),
			"Time":    c.CheckInTime.Format("15:04"),
			"Notes":   notes,
		})
	}

	content, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		FileName:    exportFileName("check-ins", "csv"),
		ContentType: "text/csv",
		Content:     content,
	}, nil
}

// ClassRoster renders the active roster of a class as CSV for trainers.
func (s *ExportService) ClassRoster(ctx context.Context, classID string) (*ExportFile, error) {
	roster, err := s.enrollments.ListActiveByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}

	data := export.Dataset{Headers: []string{"Member", "Joined", "Start Date"}}
	for _, e := range roster {
		name := e.UserID
		if e.MemberName != nil {
			name = *e.MemberName
		}
		startDate := ""
		if e.StartDate != nil {
			startDate = e.StartDate.Format("2006-01-02")
		}
		data.Rows = append(data.Rows, map[string]string{
			"Member":     name,
			"Joined":     e.JoinedAt.Format("2006-01-02"),
			"Start Date": startDate,
		})
	}

	content, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		FileName:    exportFileName("class-roster", "csv"),
		ContentType: "text/csv",
		Content:     content,
	}, nil
}

func exportFileName(prefix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, time.Now().UTC().Format("20060102"), ext)
}
