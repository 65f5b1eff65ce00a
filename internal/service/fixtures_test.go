package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/oakfield-hms/roster-api/internal/dto"
	"github.com/oakfield-hms/roster-api/internal/models"
)

// rotationPair returns the canonical two-template rotation fixture: a day
// shift and an overnight night shift.
func rotationPair(deptID string) []models.ShiftTemplate {
	validFrom := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return []models.ShiftTemplate{
		{
			ID:              "tmpl-day",
			DepartmentID:    deptID,
			Name:            "Morning Shift",
			StartMinute:     7 * 60,
			EndMinute:       15 * 60,
			Recurrence:      models.RecurrenceDaily,
			Interval:        1,
			ValidFrom:       validFrom,
			RotationGroup:   models.RotationMorning,
			WeekdayMinStaff: 2,
			WeekendMinStaff: 2,
			Active:          true,
		},
		{
			ID:              "tmpl-night",
			DepartmentID:    deptID,
			Name:            "Night Shift",
			StartMinute:     22 * 60,
			EndMinute:       6 * 60,
			Recurrence:      models.RecurrenceDaily,
			Interval:        1,
			ValidFrom:       validFrom,
			RotationGroup:   models.RotationNight,
			WeekdayMinStaff: 2,
			WeekendMinStaff: 2,
			Active:          true,
		},
	}
}

func newTestContext(staffIDs ...string) *SchedulerContext {
	templates := rotationPair("dept-1")
	sc := &SchedulerContext{
		Department:       &models.Department{ID: "dept-1", Name: "Emergency", Timezone: "UTC", Active: true},
		Location:         time.UTC,
		Templates:        templates,
		PrimaryTemplates: templates,
		Availabilities:   make(map[string][]models.StaffAvailability),
		RotationStates:   make(map[string]*models.StaffRotationState),
		Preferences:      make(map[string]map[string]bool),
		ShiftsByStaff:    make(map[string][]models.GeneratedShift),
	}
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, staffID := range staffIDs {
		sc.Assignments = append(sc.Assignments, models.DepartmentMemberAssignment{
			ID:              "assign-" + staffID,
			StaffID:         staffID,
			DepartmentID:    "dept-1",
			TemplateID:      templates[0].ID,
			Role:            "nurse",
			AssignmentStart: start,
			Active:          true,
		})
		sc.RotationStates[staffID] = &models.StaffRotationState{
			ID:           "state-" + staffID,
			StaffID:      staffID,
			DepartmentID: "dept-1",
			Cooldowns:    types.JSONText(`{}`),
		}
	}
	return sc
}

// memShiftStore is an in-memory assignmentShiftStore and incrementalShiftStore.
type memShiftStore struct {
	mu     sync.Mutex
	shifts []models.GeneratedShift
	nextID int
	fail   error
}

func (m *memShiftStore) Create(ctx context.Context, shift *models.GeneratedShift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.nextID++
	if shift.ID == "" {
		shift.ID = "shift-" + strconv.Itoa(m.nextID)
	}
	m.shifts = append(m.shifts, *shift)
	return nil
}

func (m *memShiftStore) CountForTemplateOnDate(ctx context.Context, templateID string, dayStart, dayEnd time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for i := range m.shifts {
		s := &m.shifts[i]
		if s.TemplateID == nil || *s.TemplateID != templateID || s.Status != models.ShiftStatusScheduled {
			continue
		}
		if !s.StartDatetime.Before(dayStart) && s.StartDatetime.Before(dayEnd) {
			count++
		}
	}
	return count, nil
}

func (m *memShiftStore) ListBlockingOverlaps(ctx context.Context, staffID string, start, end time.Time) ([]models.GeneratedShift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GeneratedShift
	for i := range m.shifts {
		s := m.shifts[i]
		if s.StaffID != staffID || !s.Status.Blocking() {
			continue
		}
		if s.Overlaps(start, end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memShiftStore) ExistingStartDates(ctx context.Context, staffID, templateID string, start, end time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for i := range m.shifts {
		s := &m.shifts[i]
		if s.StaffID != staffID || s.TemplateID == nil || *s.TemplateID != templateID {
			continue
		}
		if !s.StartDatetime.Before(start) && s.StartDatetime.Before(end) {
			out = append(out, s.StartDatetime)
		}
	}
	return out, nil
}

type memRotationStore struct {
	mu    sync.Mutex
	saved map[string]models.StaffRotationState
}

func (m *memRotationStore) Save(ctx context.Context, state *models.StaffRotationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]models.StaffRotationState)
	}
	m.saved[state.StaffID] = *state
	return nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []dto.ShortageEvent
	fail   error
}

func (m *memPublisher) PublishShortage(ctx context.Context, event dto.ShortageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.events = append(m.events, event)
	return nil
}

type stubLoader struct {
	sc  *SchedulerContext
	err error
}

func (l *stubLoader) Load(ctx context.Context, departmentID string, year int, month time.Month) (*SchedulerContext, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.sc, nil
}
