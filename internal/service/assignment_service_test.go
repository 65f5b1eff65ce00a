package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/models"
)

func TestSelectStaffForTemplatePrefersPreferred(t *testing.T) {
	sc := newTestContext("staff-a", "staff-c")
	// Both are group 2; pick the template their group works in week 1.
	tmpl := TemplateForGroup(sc.PrimaryTemplates, 2, 1)
	date := day(2026, time.January, 5)

	sc.Preferences["staff-c"] = map[string]bool{tmpl.ID: true}

	svc := NewAssignmentService(&memShiftStore{}, &memRotationStore{}, nil, zap.NewNop())
	selected, met := svc.SelectStaffForTemplate(sc, []string{"staff-a", "staff-c"}, date, tmpl, 1)
	require.True(t, met)
	require.Len(t, selected, 1)
	assert.Equal(t, "staff-c", selected[0])
}

func TestSelectStaffForTemplateFiltersIneligible(t *testing.T) {
	sc := newTestContext("staff-a", "staff-c")
	tmpl := TemplateForGroup(sc.PrimaryTemplates, 2, 1)
	date := day(2026, time.January, 5)

	sc.Availabilities["staff-a"] = []models.StaffAvailability{{
		StaffID:    "staff-a",
		StartDate:  date,
		EndDate:    date,
		IsBlackout: true,
		Reason:     "leave",
	}}

	svc := NewAssignmentService(&memShiftStore{}, &memRotationStore{}, nil, zap.NewNop())
	selected, met := svc.SelectStaffForTemplate(sc, []string{"staff-a", "staff-c"}, date, tmpl, 2)
	assert.False(t, met)
	assert.Equal(t, []string{"staff-c"}, selected)
}

func TestCreateShiftsForTemplate(t *testing.T) {
	sc := newTestContext("staff-a", "staff-c")
	tmpl := TemplateForGroup(sc.PrimaryTemplates, 2, 1)
	date := day(2026, time.January, 5)

	store := &memShiftStore{}
	rotations := &memRotationStore{}
	svc := NewAssignmentService(store, rotations, nil, zap.NewNop())

	created, shortage, err := svc.CreateShiftsForTemplate(context.Background(), sc, []string{"staff-a", "staff-c"}, date, tmpl, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Nil(t, shortage)

	require.Len(t, store.shifts, 2)
	for _, shift := range store.shifts {
		assert.Equal(t, models.ShiftStatusScheduled, shift.Status)
		assert.Equal(t, "dept-1", shift.DepartmentID)
		require.NotNil(t, shift.TemplateID)
		assert.Equal(t, tmpl.ID, *shift.TemplateID)
	}

	// Rotation state picked up the last shift end.
	state, ok := rotations.saved["staff-a"]
	require.True(t, ok)
	require.NotNil(t, state.LastShiftEnd)
}

func TestCreateShiftsForTemplateIdempotent(t *testing.T) {
	sc := newTestContext("staff-a", "staff-c")
	tmpl := TemplateForGroup(sc.PrimaryTemplates, 2, 1)
	date := day(2026, time.January, 5)

	store := &memShiftStore{}
	svc := NewAssignmentService(store, &memRotationStore{}, nil, zap.NewNop())

	created, _, err := svc.CreateShiftsForTemplate(context.Background(), sc, []string{"staff-a", "staff-c"}, date, tmpl, 2)
	require.NoError(t, err)
	require.Equal(t, 2, created)

	// Second run over the same day creates nothing.
	created, shortage, err := svc.CreateShiftsForTemplate(context.Background(), sc, []string{"staff-a", "staff-c"}, date, tmpl, 2)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Nil(t, shortage)
	assert.Len(t, store.shifts, 2)
}

func TestCreateShiftsForTemplateReportsShortage(t *testing.T) {
	sc := newTestContext("staff-a")
	tmpl := TemplateForGroup(sc.PrimaryTemplates, 2, 1)
	date := day(2026, time.January, 5)

	publisher := &memPublisher{}
	svc := NewAssignmentService(&memShiftStore{}, &memRotationStore{}, publisher, zap.NewNop())

	created, shortage, err := svc.CreateShiftsForTemplate(context.Background(), sc, []string{"staff-a"}, date, tmpl, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.NotNil(t, shortage)
	assert.Equal(t, 3, shortage.RequiredStaff)
	assert.Equal(t, 1, shortage.AvailableStaff)
	assert.Equal(t, 2, shortage.Shortage())

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "dept-1", publisher.events[0].DepartmentID)
}

func TestCreateShiftsForTemplateSkipsStoreConflict(t *testing.T) {
	sc := newTestContext("staff-a")
	tmpl := TemplateForGroup(sc.PrimaryTemplates, 2, 1)
	date := day(2026, time.January, 5)

	// A conflicting booking exists in the store but not in the context, the
	// way a concurrent run would leave it.
	store := &memShiftStore{}
	start, end := OccurrenceBounds(tmpl, date, time.UTC)
	store.shifts = append(store.shifts, models.GeneratedShift{
		ID:            "shift-existing",
		StaffID:       "staff-a",
		DepartmentID:  "dept-1",
		StartDatetime: start,
		EndDatetime:   end,
		Status:        models.ShiftStatusEmergency,
	})

	svc := NewAssignmentService(store, &memRotationStore{}, nil, zap.NewNop())
	created, shortage, err := svc.CreateShiftsForTemplate(context.Background(), sc, []string{"staff-a"}, date, tmpl, 1)
	require.NoError(t, err)
	assert.Zero(t, created)
	require.NotNil(t, shortage)
	assert.Len(t, store.shifts, 1)
}

func TestCreateShiftsRecordsCooldown(t *testing.T) {
	sc := newTestContext("staff-a")
	tmpl := TemplateForGroup(sc.PrimaryTemplates, 2, 1)
	tmplCopy := *tmpl
	tmplCopy.CooldownWeeks = 2
	date := day(2026, time.January, 5)

	rotations := &memRotationStore{}
	svc := NewAssignmentService(&memShiftStore{}, rotations, nil, zap.NewNop())

	created, _, err := svc.CreateShiftsForTemplate(context.Background(), sc, []string{"staff-a"}, date, &tmplCopy, 1)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	state := sc.RotationStates["staff-a"]
	cooldowns, err := state.CooldownMap()
	require.NoError(t, err)
	window, ok := cooldowns[tmplCopy.ID]
	require.True(t, ok)
	assert.Equal(t, window.Start.AddDate(0, 0, 14), window.End)
}
