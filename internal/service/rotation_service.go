package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/dto"
	"github.com/oakfield-hms/roster-api/internal/models"
	appErrors "github.com/oakfield-hms/roster-api/pkg/errors"
)

type schedulerContextLoader interface {
	Load(ctx context.Context, departmentID string, year int, month time.Month) (*SchedulerContext, error)
}

type rotationStateStore interface {
	Save(ctx context.Context, state *models.StaffRotationState) error
}

// RotationService drives monthly rotation generation: it partitions the
// month into weeks, alternates the two primary templates between the two
// staff groups by week parity, and fills every day of each week.
type RotationService struct {
	loader      schedulerContextLoader
	assignments *AssignmentService
	rotations   rotationStateStore
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRotationService wires the monthly generator.
func NewRotationService(loader schedulerContextLoader, assignments *AssignmentService, rotations rotationStateStore, validate *validator.Validate, logger *zap.Logger) *RotationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotationService{
		loader:      loader,
		assignments: assignments,
		rotations:   rotations,
		validator:   validate,
		logger:      logger,
	}
}

// GenerateMonthlySchedule produces the department's rotation schedule for a
// month. Weeks fail independently: a failed week is logged and counted, and
// the remaining weeks still generate. Already-created shifts are never
// rolled back.
func (s *RotationService) GenerateMonthlySchedule(ctx context.Context, req dto.GenerateMonthlyRequest) (*dto.GenerationReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid monthly generation request")
	}
	month := time.Month(req.Month)

	sc, err := s.loader.Load(ctx, req.DepartmentID, req.Year, month)
	if err != nil {
		return nil, err
	}

	if len(sc.PrimaryTemplates) < 2 {
		s.logger.Error("department lacks a rotation template pair, aborting generation",
			zap.String("department_id", req.DepartmentID),
			zap.Int("primary_templates", len(sc.PrimaryTemplates)))
		return nil, appErrors.Clone(appErrors.ErrRotationConfig,
			fmt.Sprintf("department %s needs at least two primary templates, found %d", req.DepartmentID, len(sc.PrimaryTemplates)))
	}

	groups := partitionStaff(sc.StaffIDs())
	report := &dto.GenerationReport{
		DepartmentID: req.DepartmentID,
		Year:         req.Year,
		Month:        month,
	}

	monthStart := time.Date(req.Year, month, 1, 0, 0, 0, 0, sc.Location)
	monthEnd := monthStart.AddDate(0, 1, 0)

	weekNum := 0
	for weekStart := monthStart; weekStart.Before(monthEnd); weekStart = weekStart.AddDate(0, 0, 7) {
		weekNum++
		weekEnd := weekStart.AddDate(0, 0, 7)
		if weekEnd.After(monthEnd) {
			weekEnd = monthEnd
		}
		if err := s.generateWeek(ctx, sc, groups, weekNum, weekStart, weekEnd, report); err != nil {
			report.WeeksFailed++
			s.logger.Error("week generation failed, continuing with remaining weeks",
				zap.String("department_id", req.DepartmentID),
				zap.Int("week", weekNum),
				zap.Error(err))
			continue
		}
		report.WeeksProcessed++
	}

	s.logger.Info("monthly schedule generated",
		zap.String("department_id", req.DepartmentID),
		zap.Int("year", req.Year),
		zap.Int("month", int(month)),
		zap.Int("shifts_created", report.ShiftsCreated),
		zap.Int("shortages", len(report.Shortages)))
	return report, nil
}

// generateWeek fills one week: group 1 first, then group 2, each on the
// template the parity rule assigns them, one shift per member per day.
// Rotation state advances once per member using the last day of the week.
func (s *RotationService) generateWeek(ctx context.Context, sc *SchedulerContext, groups [][]string, weekNum int, weekStart, weekEnd time.Time, report *dto.GenerationReport) error {
	lastDay := weekEnd.AddDate(0, 0, -1)

	for groupIdx, members := range groups {
		tmpl := TemplateForGroup(sc.PrimaryTemplates, groupIdx+1, weekNum)
		if tmpl == nil {
			return appErrors.Clone(appErrors.ErrRotationConfig, "rotation template pair unavailable")
		}

		for day := weekStart; day.Before(weekEnd); day = day.AddDate(0, 0, 1) {
			// The whole group works its week, and the template's staffing
			// floor still applies when the group is too small to meet it.
			// An empty group therefore surfaces as a full-deficit shortage.
			required := tmpl.RequiredStaff(day)
			if len(members) > required {
				required = len(members)
			}
			if required == 0 {
				continue
			}
			created, shortage, err := s.assignments.CreateShiftsForTemplate(ctx, sc, members, day, tmpl, required)
			if err != nil {
				return err
			}
			report.ShiftsCreated += created
			if shortage != nil {
				report.Shortages = append(report.Shortages, *shortage)
			}
		}

		for _, staffID := range members {
			state := sc.RotationStates[staffID]
			if state == nil {
				continue
			}
			state.AdvanceTemplate(tmpl.ID)
			_, endOfWeek := OccurrenceBounds(tmpl, lastDay, sc.Location)
			state.LastShiftEnd = &endOfWeek
			if err := s.rotations.Save(ctx, state); err != nil {
				s.logger.Error("rotation state save failed at week end",
					zap.String("staff_id", staffID), zap.Error(err))
			}
		}
	}
	return nil
}

// partitionStaff splits staff into the two rotation groups. Group order is
// deterministic so aborted runs resume reproducibly.
func partitionStaff(staffIDs []string) [][]string {
	groups := make([][]string, rotationGroupCount)
	for _, staffID := range staffIDs {
		idx := StaffGroup(staffID) - 1
		groups[idx] = append(groups[idx], staffID)
	}
	return groups
}
