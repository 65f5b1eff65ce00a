package models

import "time"

// DepartmentMemberAssignment binds a staff member acting in a department role
// to a shift template for an assignment window. Drives recurring generation.
type DepartmentMemberAssignment struct {
	ID              string     `db:"id" json:"id"`
	StaffID         string     `db:"staff_id" json:"staff_id"`
	DepartmentID    string     `db:"department_id" json:"department_id"`
	TemplateID      string     `db:"template_id" json:"template_id"`
	Role            string     `db:"role" json:"role"`
	AssignmentStart time.Time  `db:"assignment_start" json:"assignment_start"`
	AssignmentEnd   *time.Time `db:"assignment_end" json:"assignment_end,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// ActiveOn reports whether the assignment window covers the given instant.
func (a *DepartmentMemberAssignment) ActiveOn(t time.Time) bool {
	if !a.Active || t.Before(a.AssignmentStart) {
		return false
	}
	return a.AssignmentEnd == nil || !t.After(*a.AssignmentEnd)
}
