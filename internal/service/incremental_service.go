package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/models"
	"github.com/oakfield-hms/roster-api/pkg/config"
)

type incrementalAssignmentReader interface {
	ListActive(ctx context.Context, futureOnly bool, now time.Time) ([]models.DepartmentMemberAssignment, error)
}

type incrementalTemplateReader interface {
	FindByID(ctx context.Context, id string) (*models.ShiftTemplate, error)
}

type incrementalDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type incrementalShiftStore interface {
	Create(ctx context.Context, shift *models.GeneratedShift) error
	ExistingStartDates(ctx context.Context, staffID, templateID string, start, end time.Time) ([]time.Time, error)
	ListBlockingOverlaps(ctx context.Context, staffID string, start, end time.Time) ([]models.GeneratedShift, error)
}

// IncrementalService keeps the rolling shift horizon filled. It walks active
// assignments, expands each template's recurrence over the lookahead window,
// and creates only the occurrences that do not already exist, so repeated
// runs converge instead of duplicating.
type IncrementalService struct {
	assignments incrementalAssignmentReader
	templates   incrementalTemplateReader
	departments incrementalDepartmentReader
	shifts      incrementalShiftStore
	cfg         config.SchedulerConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewIncrementalService wires the incremental generator.
func NewIncrementalService(assignments incrementalAssignmentReader, templates incrementalTemplateReader, departments incrementalDepartmentReader, shifts incrementalShiftStore, cfg config.SchedulerConfig, logger *zap.Logger) *IncrementalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncrementalService{
		assignments: assignments,
		templates:   templates,
		departments: departments,
		shifts:      shifts,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// GenerateIncrementalShifts fills the horizon for every active assignment and
// returns the number of shifts created. In seed mode only assignments that
// have not started yet are processed, the window stretches to the seed
// lookahead, and creation per assignment is capped so a misconfigured
// recurrence cannot flood the schedule. A broken assignment is logged and
// skipped, never aborting the sweep.
func (s *IncrementalService) GenerateIncrementalShifts(ctx context.Context, seedMode bool) (int, error) {
	now := s.now()

	assignments, err := s.assignments.ListActive(ctx, seedMode, now)
	if err != nil {
		return 0, err
	}

	templateCache := make(map[string]*models.ShiftTemplate)
	locationCache := make(map[string]*time.Location)

	created := 0
	for i := range assignments {
		assignment := &assignments[i]
		n, err := s.fillAssignment(ctx, assignment, now, seedMode, templateCache, locationCache)
		if err != nil {
			s.logger.Error("assignment horizon fill failed, skipping",
				zap.String("assignment_id", assignment.ID),
				zap.String("staff_id", assignment.StaffID),
				zap.String("template_id", assignment.TemplateID),
				zap.Error(err))
			continue
		}
		created += n
	}

	s.logger.Info("incremental generation finished",
		zap.Bool("seed_mode", seedMode),
		zap.Int("assignments", len(assignments)),
		zap.Int("shifts_created", created))
	return created, nil
}

func (s *IncrementalService) fillAssignment(ctx context.Context, assignment *models.DepartmentMemberAssignment, now time.Time, seedMode bool, templateCache map[string]*models.ShiftTemplate, locationCache map[string]*time.Location) (int, error) {
	tmpl, ok := templateCache[assignment.TemplateID]
	if !ok {
		loaded, err := s.templates.FindByID(ctx, assignment.TemplateID)
		if err != nil {
			return 0, err
		}
		templateCache[assignment.TemplateID] = loaded
		tmpl = loaded
	}
	if !tmpl.Active {
		return 0, nil
	}

	loc := s.departmentLocation(ctx, assignment.DepartmentID, locationCache)

	// Window: a week of backfill behind now, the configured lookahead ahead,
	// clamped to the assignment window. Template validity is clamped inside
	// ExpandOccurrences.
	windowStart := now.AddDate(0, 0, -7)
	if windowStart.Before(assignment.AssignmentStart) {
		windowStart = assignment.AssignmentStart
	}
	lookahead := now.AddDate(0, 0, s.cfg.LookaheadDays)
	if seedMode {
		lookahead = now.AddDate(0, 0, 7*s.cfg.SeedLookaheadWeeks)
	}
	windowEnd := lookahead
	if assignment.AssignmentEnd != nil && assignment.AssignmentEnd.Before(windowEnd) {
		windowEnd = *assignment.AssignmentEnd
	}
	if !windowStart.Before(windowEnd) {
		return 0, nil
	}

	occurrences, err := ExpandOccurrences(tmpl, windowStart, windowEnd, loc)
	if err != nil {
		return 0, err
	}
	if len(occurrences) == 0 {
		return 0, nil
	}

	existingStarts, err := s.shifts.ExistingStartDates(ctx, assignment.StaffID, assignment.TemplateID, windowStart, windowEnd)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]bool, len(existingStarts))
	for _, start := range existingStarts {
		existing[start.In(loc).Format("2006-01-02")] = true
	}

	created := 0
	for _, start := range occurrences {
		if existing[start.Format("2006-01-02")] {
			continue
		}
		if seedMode && s.cfg.MaxSeedShifts > 0 && created >= s.cfg.MaxSeedShifts {
			s.logger.Warn("seed cap reached for assignment, deferring remainder",
				zap.String("assignment_id", assignment.ID),
				zap.Int("cap", s.cfg.MaxSeedShifts))
			break
		}

		_, end := OccurrenceBounds(tmpl, start, loc)
		conflicts, err := s.shifts.ListBlockingOverlaps(ctx, assignment.StaffID, start, end)
		if err != nil {
			return created, err
		}
		if len(conflicts) > 0 {
			s.logger.Debug("occurrence overlaps an existing shift, skipping",
				zap.String("staff_id", assignment.StaffID),
				zap.Time("start", start))
			continue
		}

		templateID := tmpl.ID
		shift := models.GeneratedShift{
			StaffID:       assignment.StaffID,
			DepartmentID:  assignment.DepartmentID,
			TemplateID:    &templateID,
			StartDatetime: start,
			EndDatetime:   end,
			Status:        models.ShiftStatusScheduled,
			PenaltyScore:  tmpl.PenaltyWeight,
		}
		if err := s.shifts.Create(ctx, &shift); err != nil {
			return created, err
		}
		existing[start.Format("2006-01-02")] = true
		created++
	}
	return created, nil
}

func (s *IncrementalService) departmentLocation(ctx context.Context, departmentID string, cache map[string]*time.Location) *time.Location {
	if loc, ok := cache[departmentID]; ok {
		return loc
	}
	loc := time.UTC
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		s.logger.Warn("department lookup failed, using UTC",
			zap.String("department_id", departmentID), zap.Error(err))
	} else if parsed, err := time.LoadLocation(dept.Timezone); err != nil {
		s.logger.Warn("invalid department timezone, using UTC",
			zap.String("department_id", departmentID), zap.String("timezone", dept.Timezone))
	} else {
		loc = parsed
	}
	cache[departmentID] = loc
	return loc
}
