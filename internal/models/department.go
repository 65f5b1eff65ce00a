package models

import "time"

// Department is a hospital unit that owns templates and staff assignments.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Timezone  string    `db:"timezone" json:"timezone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StaffMember is the scheduling view of a staff record; identity and HR
// fields live outside this core.
type StaffMember struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      string    `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ShiftPreference records an explicit staff preference for a template.
// Preferred staff sort first during selection.
type ShiftPreference struct {
	ID         string    `db:"id" json:"id"`
	StaffID    string    `db:"staff_id" json:"staff_id"`
	TemplateID string    `db:"template_id" json:"template_id"`
	Weight     int       `db:"weight" json:"weight"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
