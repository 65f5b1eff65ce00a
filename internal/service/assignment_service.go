package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/dto"
	"github.com/oakfield-hms/roster-api/internal/models"
)

type assignmentShiftStore interface {
	Create(ctx context.Context, shift *models.GeneratedShift) error
	CountForTemplateOnDate(ctx context.Context, templateID string, dayStart, dayEnd time.Time) (int, error)
	ListBlockingOverlaps(ctx context.Context, staffID string, start, end time.Time) ([]models.GeneratedShift, error)
}

type assignmentRotationStore interface {
	Save(ctx context.Context, state *models.StaffRotationState) error
}

type shortagePublisher interface {
	PublishShortage(ctx context.Context, event dto.ShortageEvent) error
}

// AssignmentService selects eligible staff for a template-date and creates
// the corresponding shifts, reporting shortages instead of failing.
type AssignmentService struct {
	shifts    assignmentShiftStore
	rotations assignmentRotationStore
	notifier  shortagePublisher
	logger    *zap.Logger
}

// NewAssignmentService wires the assignment manager's dependencies.
func NewAssignmentService(shifts assignmentShiftStore, rotations assignmentRotationStore, notifier shortagePublisher, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{shifts: shifts, rotations: rotations, notifier: notifier, logger: logger}
}

// SelectStaffForTemplate filters candidates through the eligibility checks,
// moves staff with an explicit preference for the template to the front, and
// truncates to requiredCount. The boolean reports whether the requirement
// was met.
func (s *AssignmentService) SelectStaffForTemplate(sc *SchedulerContext, candidates []string, date time.Time, tmpl *models.ShiftTemplate, requiredCount int) ([]string, bool) {
	var eligible []string
	for _, staffID := range candidates {
		ok, reason := IsEligible(sc, staffID, date, tmpl)
		if !ok {
			s.logger.Debug("candidate ineligible",
				zap.String("staff_id", staffID),
				zap.String("template_id", tmpl.ID),
				zap.String("reason", reason))
			continue
		}
		eligible = append(eligible, staffID)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return sc.Preferences[eligible[i]][tmpl.ID] && !sc.Preferences[eligible[j]][tmpl.ID]
	})

	if len(eligible) >= requiredCount {
		return eligible[:requiredCount], true
	}
	return eligible, false
}

// CreateShiftsForTemplate creates the missing shifts for a template on a
// date. Existing SCHEDULED shifts are counted first so re-runs never
// duplicate; each selected staff member gets a final overlap re-check
// against the store before creation. A headcount deficit is emitted as a
// shortage event, not an error; per-staff creation failures are logged and
// skipped.
func (s *AssignmentService) CreateShiftsForTemplate(ctx context.Context, sc *SchedulerContext, candidates []string, date time.Time, tmpl *models.ShiftTemplate, requiredCount int) (int, *dto.ShortageEvent, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, sc.Location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	existing, err := s.shifts.CountForTemplateOnDate(ctx, tmpl.ID, dayStart, dayEnd)
	if err != nil {
		return 0, nil, err
	}
	needed := requiredCount - existing
	if needed <= 0 {
		return 0, nil, nil
	}

	selected, _ := s.SelectStaffForTemplate(sc, candidates, date, tmpl, needed)

	created := 0
	for _, staffID := range selected {
		start, end := OccurrenceBounds(tmpl, date, sc.Location)

		// Re-check against the store in case a concurrent run booked the
		// staff member between selection and commit.
		conflicts, err := s.shifts.ListBlockingOverlaps(ctx, staffID, start, end)
		if err != nil {
			s.logger.Error("overlap re-check failed, skipping staff member",
				zap.String("staff_id", staffID), zap.String("template_id", tmpl.ID), zap.Error(err))
			continue
		}
		if len(conflicts) > 0 {
			s.logger.Warn("double-booking detected at commit, skipping",
				zap.String("staff_id", staffID),
				zap.String("template_id", tmpl.ID),
				zap.Time("start", start))
			continue
		}

		templateID := tmpl.ID
		shift := models.GeneratedShift{
			StaffID:       staffID,
			DepartmentID:  sc.Department.ID,
			TemplateID:    &templateID,
			StartDatetime: start,
			EndDatetime:   end,
			Status:        models.ShiftStatusScheduled,
			PenaltyScore:  tmpl.PenaltyWeight,
		}
		if err := s.shifts.Create(ctx, &shift); err != nil {
			s.logger.Error("shift creation failed, continuing with remaining candidates",
				zap.String("staff_id", staffID), zap.String("template_id", tmpl.ID), zap.Error(err))
			continue
		}
		sc.RecordShift(shift)
		created++

		if err := s.updateRotationState(ctx, sc, staffID, &shift, tmpl); err != nil {
			s.logger.Error("rotation state update failed",
				zap.String("staff_id", staffID), zap.Error(err))
		}
	}

	available := existing + created
	if available < requiredCount {
		event := &dto.ShortageEvent{
			DepartmentID:   sc.Department.ID,
			Date:           dayStart,
			TemplateID:     tmpl.ID,
			TemplateName:   tmpl.Name,
			RequiredStaff:  requiredCount,
			AvailableStaff: available,
			Message: fmt.Sprintf("department %s short %d staff for %s on %s",
				sc.Department.ID, requiredCount-available, tmpl.Name, dayStart.Format("2006-01-02")),
		}
		if s.notifier != nil {
			if err := s.notifier.PublishShortage(ctx, *event); err != nil {
				s.logger.Warn("shortage notification failed", zap.Error(err))
			}
		}
		return created, event, nil
	}
	return created, nil, nil
}

// updateRotationState records the shift on the member's rotation state:
// last shift end, weekend counter, and the template cooldown window. The
// consecutive-weeks counter advances once per week in the rotation
// generator, not here.
func (s *AssignmentService) updateRotationState(ctx context.Context, sc *SchedulerContext, staffID string, shift *models.GeneratedShift, tmpl *models.ShiftTemplate) error {
	state := sc.RotationStates[staffID]
	if state == nil {
		return nil
	}
	endAt := shift.EndDatetime
	state.LastShiftEnd = &endAt
	if wd := shift.StartDatetime.Weekday(); wd == time.Saturday || wd == time.Sunday {
		state.WeekendShifts++
	}
	if tmpl.CooldownWeeks > 0 {
		cooldowns, err := state.CooldownMap()
		if err != nil {
			return err
		}
		cooldowns[tmpl.ID] = models.CooldownWindow{
			Start: shift.EndDatetime,
			End:   shift.EndDatetime.AddDate(0, 0, 7*tmpl.CooldownWeeks),
		}
		if err := state.SetCooldowns(cooldowns); err != nil {
			return err
		}
	}
	return s.rotations.Save(ctx, state)
}
