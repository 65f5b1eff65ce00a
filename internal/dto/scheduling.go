package dto

import "time"

// ShortageEvent reports that fewer eligible staff exist than a template's
// required headcount for a date. Reported, never raised.
type ShortageEvent struct {
	DepartmentID   string    `json:"department_id"`
	Date           time.Time `json:"date"`
	TemplateID     string    `json:"template_id"`
	TemplateName   string    `json:"template_name"`
	RequiredStaff  int       `json:"required_staff"`
	AvailableStaff int       `json:"available_staff"`
	Message        string    `json:"message"`
}

// Shortage returns the headcount deficit.
func (e ShortageEvent) Shortage() int {
	return e.RequiredStaff - e.AvailableStaff
}

// GenerationReport summarises one monthly generation run.
type GenerationReport struct {
	DepartmentID   string          `json:"department_id"`
	Year           int             `json:"year"`
	Month          time.Month      `json:"month"`
	ShiftsCreated  int             `json:"shifts_created"`
	WeeksProcessed int             `json:"weeks_processed"`
	WeeksFailed    int             `json:"weeks_failed"`
	Shortages      []ShortageEvent `json:"shortages"`
}

// GenerateMonthlyRequest identifies the department-month to generate.
type GenerateMonthlyRequest struct {
	DepartmentID string `json:"department_id" validate:"required"`
	Year         int    `json:"year" validate:"required,gte=2000,lte=2200"`
	Month        int    `json:"month" validate:"required,gte=1,lte=12"`
}

// AvailabilityResult answers a CheckAvailability call.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
