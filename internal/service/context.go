package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/models"
	appErrors "github.com/oakfield-hms/roster-api/pkg/errors"
)

// SchedulerContext carries everything the eligibility checks and generators
// need for one department run. It is assembled once per run by the loader
// and mutated only by recording newly created shifts.
type SchedulerContext struct {
	Department       *models.Department
	Location         *time.Location
	Templates        []models.ShiftTemplate
	PrimaryTemplates []models.ShiftTemplate
	Assignments      []models.DepartmentMemberAssignment
	Availabilities   map[string][]models.StaffAvailability
	RotationStates   map[string]*models.StaffRotationState
	Preferences      map[string]map[string]bool
	WeekendPolicy    *models.WeekendShiftPolicy
	ShiftsByStaff    map[string][]models.GeneratedShift
}

// RecordShift makes a freshly created shift visible to subsequent overlap
// and weekly-consistency checks within the same run.
func (sc *SchedulerContext) RecordShift(shift models.GeneratedShift) {
	sc.ShiftsByStaff[shift.StaffID] = append(sc.ShiftsByStaff[shift.StaffID], shift)
}

// StaffIDs returns the distinct staff ids with active assignments, sorted.
func (sc *SchedulerContext) StaffIDs() []string {
	seen := make(map[string]bool, len(sc.Assignments))
	var ids []string
	for _, a := range sc.Assignments {
		if !seen[a.StaffID] {
			seen[a.StaffID] = true
			ids = append(ids, a.StaffID)
		}
	}
	sort.Strings(ids)
	return ids
}

type contextDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type contextTemplateReader interface {
	ListActiveByDepartment(ctx context.Context, departmentID string) ([]models.ShiftTemplate, error)
}

type contextAssignmentReader interface {
	ListActiveByDepartment(ctx context.Context, departmentID string) ([]models.DepartmentMemberAssignment, error)
}

type contextAvailabilityReader interface {
	ListForStaffIDs(ctx context.Context, staffIDs []string) ([]models.StaffAvailability, error)
}

type contextRotationReader interface {
	GetOrCreate(ctx context.Context, staffID, departmentID string) (*models.StaffRotationState, error)
}

type contextPreferenceReader interface {
	ListForStaffIDs(ctx context.Context, staffIDs []string) ([]models.ShiftPreference, error)
}

type contextPolicyReader interface {
	FindByDepartment(ctx context.Context, departmentID string) (*models.WeekendShiftPolicy, error)
}

type contextShiftReader interface {
	ListByStaffBetween(ctx context.Context, staffID string, start, end time.Time) ([]models.GeneratedShift, error)
}

// ContextLoader assembles a SchedulerContext from the storage collaborators.
type ContextLoader struct {
	departments    contextDepartmentReader
	templates      contextTemplateReader
	assignments    contextAssignmentReader
	availabilities contextAvailabilityReader
	rotations      contextRotationReader
	preferences    contextPreferenceReader
	policies       contextPolicyReader
	shifts         contextShiftReader
	logger         *zap.Logger
}

// NewContextLoader wires the loader's read dependencies.
func NewContextLoader(
	departments contextDepartmentReader,
	templates contextTemplateReader,
	assignments contextAssignmentReader,
	availabilities contextAvailabilityReader,
	rotations contextRotationReader,
	preferences contextPreferenceReader,
	policies contextPolicyReader,
	shifts contextShiftReader,
	logger *zap.Logger,
) *ContextLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextLoader{
		departments:    departments,
		templates:      templates,
		assignments:    assignments,
		availabilities: availabilities,
		rotations:      rotations,
		preferences:    preferences,
		policies:       policies,
		shifts:         shifts,
		logger:         logger,
	}
}

// Load builds the scheduler context for a department month. The generation
// window is anchored at month boundaries in the department's own timezone,
// and existing shifts are preloaded for it (padded by a week on both sides
// so weekly-consistency checks see neighbouring days).
func (l *ContextLoader) Load(ctx context.Context, departmentID string, year int, month time.Month) (*SchedulerContext, error) {
	dept, err := l.departments.FindByID(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("department %s not found", departmentID))
	}

	loc, err := time.LoadLocation(dept.Timezone)
	if err != nil {
		l.logger.Warn("invalid department timezone, falling back to UTC",
			zap.String("department_id", departmentID), zap.String("timezone", dept.Timezone))
		loc = time.UTC
	}

	templates, err := l.templates.ListActiveByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift templates")
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	assignments, err := l.assignments.ListActiveByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff assignments")
	}

	sc := &SchedulerContext{
		Department:       dept,
		Location:         loc,
		Templates:        templates,
		PrimaryTemplates: primaryTemplates(templates),
		Assignments:      assignments,
		Availabilities:   make(map[string][]models.StaffAvailability),
		RotationStates:   make(map[string]*models.StaffRotationState),
		Preferences:      make(map[string]map[string]bool),
		ShiftsByStaff:    make(map[string][]models.GeneratedShift),
	}

	staffIDs := sc.StaffIDs()

	availabilities, err := l.availabilities.ListForStaffIDs(ctx, staffIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availabilities")
	}
	for _, record := range availabilities {
		sc.Availabilities[record.StaffID] = append(sc.Availabilities[record.StaffID], record)
	}

	for _, staffID := range staffIDs {
		state, err := l.rotations.GetOrCreate(ctx, staffID, departmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation state")
		}
		sc.RotationStates[staffID] = state
	}

	prefs, err := l.preferences.ListForStaffIDs(ctx, staffIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	for _, pref := range prefs {
		if sc.Preferences[pref.StaffID] == nil {
			sc.Preferences[pref.StaffID] = make(map[string]bool)
		}
		sc.Preferences[pref.StaffID][pref.TemplateID] = true
	}

	policy, err := l.policies.FindByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekend policy")
	}
	sc.WeekendPolicy = policy

	windowStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	padStart := windowStart.AddDate(0, 0, -7)
	padEnd := windowStart.AddDate(0, 1, 7)
	for _, staffID := range staffIDs {
		shifts, err := l.shifts.ListByStaffBetween(ctx, staffID, padStart, padEnd)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing shifts")
		}
		sc.ShiftsByStaff[staffID] = shifts
	}

	return sc, nil
}

// primaryTemplates identifies the rotation pair: templates tagged with a
// rotation group first, then a name heuristic fallback for departments that
// never tagged their templates.
func primaryTemplates(templates []models.ShiftTemplate) []models.ShiftTemplate {
	var tagged []models.ShiftTemplate
	for _, tmpl := range templates {
		if tmpl.RotationGroup != "" {
			tagged = append(tagged, tmpl)
		}
	}
	if len(tagged) >= 2 {
		return tagged
	}

	var named []models.ShiftTemplate
	for _, tmpl := range templates {
		name := strings.ToLower(tmpl.Name)
		if strings.Contains(name, "morning") || strings.Contains(name, "night") {
			named = append(named, tmpl)
		}
	}
	if len(named) >= 2 {
		return named
	}
	return tagged
}
