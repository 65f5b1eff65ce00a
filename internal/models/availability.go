package models

import "time"

// AvailabilityStatus classifies an availability record.
type AvailabilityStatus string

const (
	AvailabilityAvailable    AvailabilityStatus = "AVAILABLE"
	AvailabilityUnavailable  AvailabilityStatus = "UNAVAILABLE"
	AvailabilityPreferredOff AvailabilityStatus = "PREFERRED_OFF"
)

// StaffAvailability is a staff member's availability or blackout window.
// Read-only input to eligibility checks.
type StaffAvailability struct {
	ID         string             `db:"id" json:"id"`
	StaffID    string             `db:"staff_id" json:"staff_id"`
	StartDate  time.Time          `db:"start_date" json:"start_date"`
	EndDate    time.Time          `db:"end_date" json:"end_date"`
	Status     AvailabilityStatus `db:"status" json:"status"`
	IsBlackout bool               `db:"is_blackout" json:"is_blackout"`
	Reason     string             `db:"reason" json:"reason"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
}

// Blocks reports whether the record forbids working on the given date.
func (a *StaffAvailability) Blocks(date time.Time) bool {
	if !a.IsBlackout && a.Status != AvailabilityUnavailable {
		return false
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start := time.Date(a.StartDate.Year(), a.StartDate.Month(), a.StartDate.Day(), 0, 0, 0, 0, date.Location())
	end := time.Date(a.EndDate.Year(), a.EndDate.Month(), a.EndDate.Day(), 0, 0, 0, 0, date.Location())
	return !day.Before(start) && !day.After(end)
}
