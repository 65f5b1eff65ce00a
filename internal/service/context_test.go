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

type stubDepartmentFinder struct {
	dept *models.Department
}

func (s *stubDepartmentFinder) FindByID(ctx context.Context, id string) (*models.Department, error) {
	return s.dept, nil
}

type stubTemplateLister struct {
	templates []models.ShiftTemplate
}

func (s *stubTemplateLister) ListActiveByDepartment(ctx context.Context, departmentID string) ([]models.ShiftTemplate, error) {
	return s.templates, nil
}

type stubAssignmentLister struct {
	assignments []models.DepartmentMemberAssignment
}

func (s *stubAssignmentLister) ListActiveByDepartment(ctx context.Context, departmentID string) ([]models.DepartmentMemberAssignment, error) {
	return s.assignments, nil
}

type stubAvailabilityLister struct{}

func (s *stubAvailabilityLister) ListForStaffIDs(ctx context.Context, staffIDs []string) ([]models.StaffAvailability, error) {
	return nil, nil
}

type stubRotationGetter struct{}

func (s *stubRotationGetter) GetOrCreate(ctx context.Context, staffID, departmentID string) (*models.StaffRotationState, error) {
	return &models.StaffRotationState{StaffID: staffID, DepartmentID: departmentID}, nil
}

type stubPreferenceLister struct{}

func (s *stubPreferenceLister) ListForStaffIDs(ctx context.Context, staffIDs []string) ([]models.ShiftPreference, error) {
	return nil, nil
}

type stubPolicyFinder struct{}

func (s *stubPolicyFinder) FindByDepartment(ctx context.Context, departmentID string) (*models.WeekendShiftPolicy, error) {
	return nil, nil
}

// recordingShiftReader captures the preload window it is asked for.
type recordingShiftReader struct {
	starts []time.Time
	ends   []time.Time
}

func (r *recordingShiftReader) ListByStaffBetween(ctx context.Context, staffID string, start, end time.Time) ([]models.GeneratedShift, error) {
	r.starts = append(r.starts, start)
	r.ends = append(r.ends, end)
	return nil, nil
}

func newLoaderFixture(timezone string) (*ContextLoader, *recordingShiftReader) {
	shifts := &recordingShiftReader{}
	loader := NewContextLoader(
		&stubDepartmentFinder{dept: &models.Department{ID: "dept-1", Name: "Emergency", Timezone: timezone, Active: true}},
		&stubTemplateLister{templates: rotationPair("dept-1")},
		&stubAssignmentLister{assignments: []models.DepartmentMemberAssignment{{
			ID:           "assign-staff-a",
			StaffID:      "staff-a",
			DepartmentID: "dept-1",
			Active:       true,
		}}},
		&stubAvailabilityLister{},
		&stubRotationGetter{},
		&stubPreferenceLister{},
		&stubPolicyFinder{},
		shifts,
		zap.NewNop(),
	)
	return loader, shifts
}

func TestContextLoaderAnchorsWindowToDepartmentTimezone(t *testing.T) {
	loader, shifts := newLoaderFixture("Asia/Tokyo")

	sc, err := loader.Load(context.Background(), "dept-1", 2026, time.January)
	require.NoError(t, err)
	require.NotNil(t, sc.Location)
	assert.Equal(t, "Asia/Tokyo", sc.Location.String())

	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	monthStart := time.Date(2026, time.January, 1, 0, 0, 0, 0, loc)

	// The shift preload window is the month in the department's timezone,
	// padded by a week on both sides.
	require.Len(t, shifts.starts, 1)
	assert.True(t, shifts.starts[0].Equal(monthStart.AddDate(0, 0, -7)))
	assert.True(t, shifts.ends[0].Equal(monthStart.AddDate(0, 1, 7)))
}

func TestContextLoaderFallsBackToUTCOnBadTimezone(t *testing.T) {
	loader, shifts := newLoaderFixture("Not/AZone")

	sc, err := loader.Load(context.Background(), "dept-1", 2026, time.March)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, sc.Location)

	monthStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.Len(t, shifts.starts, 1)
	assert.True(t, shifts.starts[0].Equal(monthStart.AddDate(0, 0, -7)))
}

func TestContextLoaderCollectsStaffState(t *testing.T) {
	loader, _ := newLoaderFixture("UTC")

	sc, err := loader.Load(context.Background(), "dept-1", 2026, time.January)
	require.NoError(t, err)

	assert.Equal(t, []string{"staff-a"}, sc.StaffIDs())
	require.Contains(t, sc.RotationStates, "staff-a")
	assert.Len(t, sc.PrimaryTemplates, 2)
	assert.Nil(t, sc.WeekendPolicy)
}
