package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// CooldownWindow marks a period during which a staff member may not be
// re-assigned to the keyed template.
type CooldownWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StaffRotationState tracks per (staff, department) rotation progress.
// Created lazily on first assignment, never deleted.
type StaffRotationState struct {
	ID                string         `db:"id" json:"id"`
	StaffID           string         `db:"staff_id" json:"staff_id"`
	DepartmentID      string         `db:"department_id" json:"department_id"`
	CurrentTemplateID *string        `db:"current_template_id" json:"current_template_id,omitempty"`
	LastShiftEnd      *time.Time     `db:"last_shift_end" json:"last_shift_end,omitempty"`
	ConsecutiveWeeks  int            `db:"consecutive_weeks" json:"consecutive_weeks"`
	RotationIndex     int            `db:"rotation_index" json:"rotation_index"`
	Cooldowns         types.JSONText `db:"cooldowns" json:"cooldowns"`
	WeekendShifts     int            `db:"weekend_shifts" json:"weekend_shifts"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// CooldownMap decodes the cooldown windows keyed by template id.
func (s *StaffRotationState) CooldownMap() (map[string]CooldownWindow, error) {
	result := make(map[string]CooldownWindow)
	if len(s.Cooldowns) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(s.Cooldowns, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SetCooldowns encodes the cooldown windows back onto the row.
func (s *StaffRotationState) SetCooldowns(m map[string]CooldownWindow) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.Cooldowns = types.JSONText(raw)
	return nil
}

// AdvanceTemplate applies the consecutive-weeks invariant: the counter resets
// to 1 whenever the current template changes, otherwise increments.
func (s *StaffRotationState) AdvanceTemplate(templateID string) {
	if s.CurrentTemplateID != nil && *s.CurrentTemplateID == templateID {
		s.ConsecutiveWeeks++
	} else {
		s.ConsecutiveWeeks = 1
	}
	tid := templateID
	s.CurrentTemplateID = &tid
	s.RotationIndex++
}
