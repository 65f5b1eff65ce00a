package models

import "time"

// ShiftStatus represents the lifecycle phase of a generated shift.
type ShiftStatus string

const (
	ShiftStatusScheduled ShiftStatus = "SCHEDULED"
	ShiftStatusCompleted ShiftStatus = "COMPLETED"
	ShiftStatusCancelled ShiftStatus = "CANCELLED"
	ShiftStatusEmergency ShiftStatus = "EMERGENCY"
	ShiftStatusSwapped   ShiftStatus = "SWAPPED"
)

// Blocking reports whether the status counts toward double-booking checks.
func (s ShiftStatus) Blocking() bool {
	return s == ShiftStatusScheduled || s == ShiftStatusEmergency
}

// GeneratedShift is a concrete, dated shift instance assigned to one staff
// member. Shifts are never deleted, only status-transitioned.
type GeneratedShift struct {
	ID             string      `db:"id" json:"id"`
	StaffID        string      `db:"staff_id" json:"staff_id"`
	DepartmentID   string      `db:"department_id" json:"department_id"`
	TemplateID     *string     `db:"template_id" json:"template_id,omitempty"`
	StartDatetime  time.Time   `db:"start_datetime" json:"start_datetime"`
	EndDatetime    time.Time   `db:"end_datetime" json:"end_datetime"`
	Status         ShiftStatus `db:"status" json:"status"`
	Priority       int         `db:"priority" json:"priority"`
	PenaltyScore   float64     `db:"penalty_score" json:"penalty_score"`
	IsOverride     bool        `db:"is_override" json:"is_override"`
	OverrideReason *string     `db:"override_reason" json:"override_reason,omitempty"`
	OverriddenBy   *string     `db:"overridden_by" json:"overridden_by,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether two half-open time ranges intersect.
func (s *GeneratedShift) Overlaps(start, end time.Time) bool {
	return s.StartDatetime.Before(end) && start.Before(s.EndDatetime)
}

// ShiftAssignmentHistory is an append-only audit row for shift transitions.
type ShiftAssignmentHistory struct {
	ID             string      `db:"id" json:"id"`
	ShiftID        string      `db:"shift_id" json:"shift_id"`
	PreviousStatus ShiftStatus `db:"previous_status" json:"previous_status"`
	NewStatus      ShiftStatus `db:"new_status" json:"new_status"`
	ChangedBy      string      `db:"changed_by" json:"changed_by"`
	ChangedAt      time.Time   `db:"changed_at" json:"changed_at"`
	Notes          string      `db:"notes" json:"notes"`
}
