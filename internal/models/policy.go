package models

import "time"

// WeekendShiftPolicy limits weekend load per staff member for a department.
type WeekendShiftPolicy struct {
	ID                     string    `db:"id" json:"id"`
	DepartmentID           string    `db:"department_id" json:"department_id"`
	MaxWeekendShifts       int       `db:"max_weekend_shifts" json:"max_weekend_shifts"`
	MaxConsecutiveWeekends int       `db:"max_consecutive_weekends" json:"max_consecutive_weekends"`
	MaxWeekendPerQuarter   int       `db:"max_weekend_per_quarter" json:"max_weekend_per_quarter"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}
