package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/oakfield-hms/roster-api/internal/models"
)

const rotationColumns = `id, staff_id, department_id, current_template_id, last_shift_end, consecutive_weeks, rotation_index, cooldowns, weekend_shifts, updated_at`

// RotationStateRepository provides persistence for staff rotation state.
type RotationStateRepository struct {
	db *sqlx.DB
}

// NewRotationStateRepository creates a new rotation state repository.
func NewRotationStateRepository(db *sqlx.DB) *RotationStateRepository {
	return &RotationStateRepository{db: db}
}

// GetOrCreate loads the rotation state row for (staff, department), creating
// an empty one on first use. State rows are never deleted.
func (r *RotationStateRepository) GetOrCreate(ctx context.Context, staffID, departmentID string) (*models.StaffRotationState, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_rotation_states WHERE staff_id = $1 AND department_id = $2`, rotationColumns)
	var state models.StaffRotationState
	err := r.db.GetContext(ctx, &state, query, staffID, departmentID)
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load rotation state: %w", err)
	}

	state = models.StaffRotationState{
		ID:           uuid.NewString(),
		StaffID:      staffID,
		DepartmentID: departmentID,
		Cooldowns:    types.JSONText(`{}`),
		UpdatedAt:    time.Now().UTC(),
	}
	const insert = `INSERT INTO staff_rotation_states (id, staff_id, department_id, current_template_id, last_shift_end, consecutive_weeks, rotation_index, cooldowns, weekend_shifts, updated_at) VALUES (:id, :staff_id, :department_id, :current_template_id, :last_shift_end, :consecutive_weeks, :rotation_index, :cooldowns, :weekend_shifts, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, &state); err != nil {
		return nil, fmt.Errorf("create rotation state: %w", err)
	}
	return &state, nil
}

// ListByDepartment loads all rotation states for a department keyed by staff.
func (r *RotationStateRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.StaffRotationState, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_rotation_states WHERE department_id = $1 ORDER BY staff_id ASC`, rotationColumns)
	var states []models.StaffRotationState
	if err := r.db.SelectContext(ctx, &states, query, departmentID); err != nil {
		return nil, fmt.Errorf("list rotation states: %w", err)
	}
	return states, nil
}

// Save writes the mutable fields of a rotation state back.
func (r *RotationStateRepository) Save(ctx context.Context, state *models.StaffRotationState) error {
	state.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff_rotation_states SET current_template_id = :current_template_id, last_shift_end = :last_shift_end, consecutive_weeks = :consecutive_weeks, rotation_index = :rotation_index, cooldowns = :cooldowns, weekend_shifts = :weekend_shifts, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, state); err != nil {
		return fmt.Errorf("save rotation state: %w", err)
	}
	return nil
}
