package models

import "time"

// RecurrenceKind enumerates supported recurrence rules for shift templates.
type RecurrenceKind string

const (
	RecurrenceDaily   RecurrenceKind = "DAILY"
	RecurrenceWeekly  RecurrenceKind = "WEEKLY"
	RecurrenceMonthly RecurrenceKind = "MONTHLY"
	RecurrenceYearly  RecurrenceKind = "YEARLY"
)

// Valid reports whether the kind is one of the closed set.
func (k RecurrenceKind) Valid() bool {
	switch k {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// RotationGroup tags a template with the rotation slot it covers.
type RotationGroup string

const (
	RotationMorning   RotationGroup = "MORNING"
	RotationAfternoon RotationGroup = "AFTERNOON"
	RotationNight     RotationGroup = "NIGHT"
)

// ShiftTemplate is a department-scoped recurring shift definition.
// Start/end are minutes-of-day; an end at or before the start wraps past
// midnight (overnight shift). Immutable once shifts reference it except for
// deactivation.
type ShiftTemplate struct {
	ID                  string         `db:"id" json:"id"`
	DepartmentID        string         `db:"department_id" json:"department_id"`
	Name                string         `db:"name" json:"name"`
	StartMinute         int            `db:"start_minute" json:"start_minute"`
	EndMinute           int            `db:"end_minute" json:"end_minute"`
	Recurrence          RecurrenceKind `db:"recurrence" json:"recurrence"`
	Interval            int            `db:"recur_interval" json:"recur_interval"`
	Weekdays            WeekdaySet     `db:"weekdays" json:"weekdays"`
	MonthDay            int            `db:"month_day" json:"month_day"`
	ValidFrom           time.Time      `db:"valid_from" json:"valid_from"`
	ValidUntil          *time.Time     `db:"valid_until" json:"valid_until,omitempty"`
	RequiredRole        string         `db:"required_role" json:"required_role"`
	RotationGroup       RotationGroup  `db:"rotation_group" json:"rotation_group"`
	WeekdayMinStaff     int            `db:"weekday_min_staff" json:"weekday_min_staff"`
	WeekendMinStaff     int            `db:"weekend_min_staff" json:"weekend_min_staff"`
	MaxConsecutiveWeeks int            `db:"max_consecutive_weeks" json:"max_consecutive_weeks"`
	CooldownWeeks       int            `db:"cooldown_weeks" json:"cooldown_weeks"`
	MinGapMinutes       int            `db:"min_gap_minutes" json:"min_gap_minutes"`
	PenaltyWeight       float64        `db:"penalty_weight" json:"penalty_weight"`
	Active              bool           `db:"active" json:"active"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// Overnight reports whether the shift wraps past midnight.
func (t *ShiftTemplate) Overnight() bool {
	return t.EndMinute <= t.StartMinute
}

// DurationMinutes returns the shift length, accounting for wraparound.
func (t *ShiftTemplate) DurationMinutes() int {
	if t.Overnight() {
		return 24*60 - t.StartMinute + t.EndMinute
	}
	return t.EndMinute - t.StartMinute
}

// RequiredStaff returns the staffing minimum for the given date.
func (t *ShiftTemplate) RequiredStaff(date time.Time) int {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return t.WeekendMinStaff
	default:
		return t.WeekdayMinStaff
	}
}
