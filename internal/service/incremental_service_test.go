package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/models"
	"github.com/oakfield-hms/roster-api/pkg/config"
)

type stubAssignmentReader struct {
	assignments []models.DepartmentMemberAssignment
}

func (s *stubAssignmentReader) ListActive(ctx context.Context, futureOnly bool, now time.Time) ([]models.DepartmentMemberAssignment, error) {
	if !futureOnly {
		return s.assignments, nil
	}
	var out []models.DepartmentMemberAssignment
	for _, a := range s.assignments {
		if a.AssignmentStart.After(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

type stubTemplateReader struct {
	templates map[string]*models.ShiftTemplate
}

func (s *stubTemplateReader) FindByID(ctx context.Context, id string) (*models.ShiftTemplate, error) {
	tmpl, ok := s.templates[id]
	if !ok {
		return nil, assert.AnError
	}
	return tmpl, nil
}

type stubDepartmentReader struct{}

func (s *stubDepartmentReader) FindByID(ctx context.Context, id string) (*models.Department, error) {
	return &models.Department{ID: id, Name: "Emergency", Timezone: "UTC", Active: true}, nil
}

func newIncrementalFixture(store *memShiftStore, assignments []models.DepartmentMemberAssignment, templates map[string]*models.ShiftTemplate, cfg config.SchedulerConfig) *IncrementalService {
	svc := NewIncrementalService(
		&stubAssignmentReader{assignments: assignments},
		&stubTemplateReader{templates: templates},
		&stubDepartmentReader{},
		store,
		cfg,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return day(2026, time.January, 15) }
	return svc
}

func TestGenerateIncrementalShifts(t *testing.T) {
	tmpl := dailyTemplate("tmpl-day", day(2026, time.January, 1))
	assignment := models.DepartmentMemberAssignment{
		ID:              "assign-1",
		StaffID:         "staff-a",
		DepartmentID:    "dept-1",
		TemplateID:      "tmpl-day",
		AssignmentStart: day(2026, time.January, 1),
		Active:          true,
	}
	store := &memShiftStore{}
	svc := newIncrementalFixture(store, []models.DepartmentMemberAssignment{assignment},
		map[string]*models.ShiftTemplate{"tmpl-day": &tmpl},
		config.SchedulerConfig{LookaheadDays: 14})

	// Window is Jan 8 (a week behind "now") through Jan 29 midnight; the
	// daily 07:00 start on the final day falls past the window bound.
	created, err := svc.GenerateIncrementalShifts(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 21, created)
	assert.Len(t, store.shifts, 21)
	assert.Equal(t, 8, store.shifts[0].StartDatetime.Day())
	assert.Equal(t, time.January, store.shifts[0].StartDatetime.Month())
}

func TestGenerateIncrementalShiftsIdempotent(t *testing.T) {
	tmpl := dailyTemplate("tmpl-day", day(2026, time.January, 1))
	assignment := models.DepartmentMemberAssignment{
		ID:              "assign-1",
		StaffID:         "staff-a",
		DepartmentID:    "dept-1",
		TemplateID:      "tmpl-day",
		AssignmentStart: day(2026, time.January, 1),
		Active:          true,
	}
	store := &memShiftStore{}
	svc := newIncrementalFixture(store, []models.DepartmentMemberAssignment{assignment},
		map[string]*models.ShiftTemplate{"tmpl-day": &tmpl},
		config.SchedulerConfig{LookaheadDays: 14})

	first, err := svc.GenerateIncrementalShifts(context.Background(), false)
	require.NoError(t, err)
	require.NotZero(t, first)

	second, err := svc.GenerateIncrementalShifts(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, second, "second run over the same horizon creates nothing")
	assert.Len(t, store.shifts, first)
}

func TestGenerateIncrementalShiftsRespectsAssignmentEnd(t *testing.T) {
	tmpl := dailyTemplate("tmpl-day", day(2026, time.January, 1))
	end := day(2026, time.January, 20)
	assignment := models.DepartmentMemberAssignment{
		ID:              "assign-1",
		StaffID:         "staff-a",
		DepartmentID:    "dept-1",
		TemplateID:      "tmpl-day",
		AssignmentStart: day(2026, time.January, 1),
		AssignmentEnd:   &end,
		Active:          true,
	}
	store := &memShiftStore{}
	svc := newIncrementalFixture(store, []models.DepartmentMemberAssignment{assignment},
		map[string]*models.ShiftTemplate{"tmpl-day": &tmpl},
		config.SchedulerConfig{LookaheadDays: 14})

	_, err := svc.GenerateIncrementalShifts(context.Background(), false)
	require.NoError(t, err)
	for _, shift := range store.shifts {
		assert.False(t, shift.StartDatetime.After(end))
	}
}

func TestGenerateIncrementalShiftsSeedMode(t *testing.T) {
	tmpl := dailyTemplate("tmpl-day", day(2026, time.January, 1))
	future := models.DepartmentMemberAssignment{
		ID:              "assign-future",
		StaffID:         "staff-b",
		DepartmentID:    "dept-1",
		TemplateID:      "tmpl-day",
		AssignmentStart: day(2026, time.February, 1),
		Active:          true,
	}
	current := models.DepartmentMemberAssignment{
		ID:              "assign-current",
		StaffID:         "staff-a",
		DepartmentID:    "dept-1",
		TemplateID:      "tmpl-day",
		AssignmentStart: day(2026, time.January, 1),
		Active:          true,
	}
	store := &memShiftStore{}
	svc := newIncrementalFixture(store, []models.DepartmentMemberAssignment{current, future},
		map[string]*models.ShiftTemplate{"tmpl-day": &tmpl},
		config.SchedulerConfig{LookaheadDays: 14, SeedLookaheadWeeks: 8, MaxSeedShifts: 10})

	created, err := svc.GenerateIncrementalShifts(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 10, created, "seed mode caps per-assignment creation")
	for _, shift := range store.shifts {
		assert.Equal(t, "staff-b", shift.StaffID, "seed mode only touches future assignments")
		assert.False(t, shift.StartDatetime.Before(future.AssignmentStart))
	}
}

func TestGenerateIncrementalShiftsSkipsInactiveTemplate(t *testing.T) {
	tmpl := dailyTemplate("tmpl-day", day(2026, time.January, 1))
	tmpl.Active = false
	assignment := models.DepartmentMemberAssignment{
		ID:              "assign-1",
		StaffID:         "staff-a",
		DepartmentID:    "dept-1",
		TemplateID:      "tmpl-day",
		AssignmentStart: day(2026, time.January, 1),
		Active:          true,
	}
	store := &memShiftStore{}
	svc := newIncrementalFixture(store, []models.DepartmentMemberAssignment{assignment},
		map[string]*models.ShiftTemplate{"tmpl-day": &tmpl},
		config.SchedulerConfig{LookaheadDays: 14})

	created, err := svc.GenerateIncrementalShifts(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestGenerateIncrementalShiftsSkipsBrokenAssignment(t *testing.T) {
	good := dailyTemplate("tmpl-day", day(2026, time.January, 1))
	bad := dailyTemplate("tmpl-bad", day(2026, time.January, 1))
	bad.Recurrence = models.RecurrenceKind("HOURLY")

	assignments := []models.DepartmentMemberAssignment{
		{ID: "assign-bad", StaffID: "staff-a", DepartmentID: "dept-1", TemplateID: "tmpl-bad", AssignmentStart: day(2026, time.January, 1), Active: true},
		{ID: "assign-good", StaffID: "staff-b", DepartmentID: "dept-1", TemplateID: "tmpl-day", AssignmentStart: day(2026, time.January, 1), Active: true},
	}
	store := &memShiftStore{}
	svc := newIncrementalFixture(store, assignments,
		map[string]*models.ShiftTemplate{"tmpl-day": &good, "tmpl-bad": &bad},
		config.SchedulerConfig{LookaheadDays: 7})

	created, err := svc.GenerateIncrementalShifts(context.Background(), false)
	require.NoError(t, err)
	assert.NotZero(t, created)
	for _, shift := range store.shifts {
		assert.Equal(t, "staff-b", shift.StaffID)
	}
}
