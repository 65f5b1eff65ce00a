package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/models"
	appErrors "github.com/oakfield-hms/roster-api/pkg/errors"
	"github.com/oakfield-hms/roster-api/pkg/export"
)

type exportShiftReader interface {
	ListByDepartmentBetween(ctx context.Context, departmentID string, start, end time.Time) ([]models.GeneratedShift, error)
}

type exportDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders a department's monthly roster as CSV or PDF files on
// the configured storage directory.
type ExportService struct {
	shifts      exportShiftReader
	departments exportDepartmentReader
	csv         csvRenderer
	pdf         pdfRenderer
	storageDir  string
	logger      *zap.Logger
}

// NewExportService wires the roster exporter.
func NewExportService(shifts exportShiftReader, departments exportDepartmentReader, csv csvRenderer, pdf pdfRenderer, storageDir string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		shifts:      shifts,
		departments: departments,
		csv:         csv,
		pdf:         pdf,
		storageDir:  storageDir,
		logger:      logger,
	}
}

var rosterHeaders = []string{"Date", "Staff", "Start", "End", "Template", "Status"}

// ExportMonthlyRoster writes the department's roster for the month in the
// requested format ("csv" or "pdf") and returns the file path.
func (s *ExportService) ExportMonthlyRoster(ctx context.Context, departmentID string, year int, month time.Month, format string) (string, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("department %s not found", departmentID))
	}

	loc, err := time.LoadLocation(dept.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	shifts, err := s.shifts.ListByDepartmentBetween(ctx, departmentID, start, end)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster shifts")
	}

	dataset := export.Dataset{Headers: rosterHeaders}
	for i := range shifts {
		shift := &shifts[i]
		templateID := ""
		if shift.TemplateID != nil {
			templateID = *shift.TemplateID
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":     shift.StartDatetime.In(loc).Format("2006-01-02"),
			"Staff":    shift.StaffID,
			"Start":    shift.StartDatetime.In(loc).Format("15:04"),
			"End":      shift.EndDatetime.In(loc).Format("15:04"),
			"Template": templateID,
			"Status":   string(shift.Status),
		})
	}

	var payload []byte
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		title := fmt.Sprintf("%s roster %04d-%02d", dept.Name, year, int(month))
		payload, err = s.pdf.Render(dataset, title)
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}

	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare export directory")
	}
	path := filepath.Join(s.storageDir, fmt.Sprintf("roster_%s_%04d-%02d.%s", departmentID, year, int(month), format))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write roster export")
	}

	s.logger.Info("roster exported",
		zap.String("department_id", departmentID),
		zap.String("format", format),
		zap.String("path", path),
		zap.Int("rows", len(dataset.Rows)))
	return path, nil
}
