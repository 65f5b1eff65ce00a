package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

const generatedShiftColumns = `id, staff_id, department_id, template_id, start_datetime, end_datetime, status, priority, penalty_score, is_override, override_reason, overridden_by, created_at, updated_at`

// GeneratedShiftRepository provides persistence for generated shifts.
type GeneratedShiftRepository struct {
	db *sqlx.DB
}

// NewGeneratedShiftRepository creates a new shift repository.
func NewGeneratedShiftRepository(db *sqlx.DB) *GeneratedShiftRepository {
	return &GeneratedShiftRepository{db: db}
}

// FindByID loads a shift by id.
func (r *GeneratedShiftRepository) FindByID(ctx context.Context, id string) (*models.GeneratedShift, error) {
	query := fmt.Sprintf(`SELECT %s FROM generated_shifts WHERE id = $1`, generatedShiftColumns)
	var shift models.GeneratedShift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create stores a new shift record.
func (r *GeneratedShiftRepository) Create(ctx context.Context, shift *models.GeneratedShift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = now
	}
	shift.UpdatedAt = now

	const query = `INSERT INTO generated_shifts (id, staff_id, department_id, template_id, start_datetime, end_datetime, status, priority, penalty_score, is_override, override_reason, overridden_by, created_at, updated_at) VALUES (:id, :staff_id, :department_id, :template_id, :start_datetime, :end_datetime, :status, :priority, :penalty_score, :is_override, :override_reason, :overridden_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("create generated shift: %w", err)
	}
	return nil
}

// CountForTemplateOnDate counts SCHEDULED shifts already created from a
// template whose start falls on the given calendar day. Drives idempotent
// re-generation.
func (r *GeneratedShiftRepository) CountForTemplateOnDate(ctx context.Context, templateID string, dayStart, dayEnd time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM generated_shifts WHERE template_id = $1 AND status = $2 AND start_datetime >= $3 AND start_datetime < $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, templateID, models.ShiftStatusScheduled, dayStart, dayEnd); err != nil {
		return 0, fmt.Errorf("count shifts for template on date: %w", err)
	}
	return count, nil
}

// ListBlockingOverlaps returns SCHEDULED/EMERGENCY shifts for a staff member
// overlapping the given range.
func (r *GeneratedShiftRepository) ListBlockingOverlaps(ctx context.Context, staffID string, start, end time.Time) ([]models.GeneratedShift, error) {
	query := fmt.Sprintf(`SELECT %s FROM generated_shifts WHERE staff_id = $1 AND status IN ($2, $3) AND start_datetime < $5 AND end_datetime > $4`, generatedShiftColumns)
	var shifts []models.GeneratedShift
	if err := r.db.SelectContext(ctx, &shifts, query, staffID, models.ShiftStatusScheduled, models.ShiftStatusEmergency, start, end); err != nil {
		return nil, fmt.Errorf("list blocking overlaps: %w", err)
	}
	return shifts, nil
}

// ListByStaffBetween returns a staff member's shifts starting inside the
// given range, ordered by start.
func (r *GeneratedShiftRepository) ListByStaffBetween(ctx context.Context, staffID string, start, end time.Time) ([]models.GeneratedShift, error) {
	query := fmt.Sprintf(`SELECT %s FROM generated_shifts WHERE staff_id = $1 AND start_datetime >= $2 AND start_datetime < $3 ORDER BY start_datetime ASC`, generatedShiftColumns)
	var shifts []models.GeneratedShift
	if err := r.db.SelectContext(ctx, &shifts, query, staffID, start, end); err != nil {
		return nil, fmt.Errorf("list shifts by staff between: %w", err)
	}
	return shifts, nil
}

// ListByDepartmentBetween returns a department's shifts inside a range.
func (r *GeneratedShiftRepository) ListByDepartmentBetween(ctx context.Context, departmentID string, start, end time.Time) ([]models.GeneratedShift, error) {
	query := fmt.Sprintf(`SELECT %s FROM generated_shifts WHERE department_id = $1 AND start_datetime >= $2 AND start_datetime < $3 ORDER BY start_datetime ASC, staff_id ASC`, generatedShiftColumns)
	var shifts []models.GeneratedShift
	if err := r.db.SelectContext(ctx, &shifts, query, departmentID, start, end); err != nil {
		return nil, fmt.Errorf("list shifts by department between: %w", err)
	}
	return shifts, nil
}

// ExistingStartDates returns the distinct calendar days (UTC date of the
// shift start) already generated for a staff+template pair inside a window.
func (r *GeneratedShiftRepository) ExistingStartDates(ctx context.Context, staffID, templateID string, start, end time.Time) ([]time.Time, error) {
	const query = `SELECT start_datetime FROM generated_shifts WHERE staff_id = $1 AND template_id = $2 AND start_datetime >= $3 AND start_datetime < $4 ORDER BY start_datetime ASC`
	var starts []time.Time
	if err := r.db.SelectContext(ctx, &starts, query, staffID, templateID, start, end); err != nil {
		return nil, fmt.Errorf("list existing shift dates: %w", err)
	}
	return starts, nil
}

// UpdateStatus transitions a shift's status using the provided executor so
// callers can compose it into a transaction.
func (r *GeneratedShiftRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ShiftStatus) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `UPDATE generated_shifts SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update shift status: %w", err)
	}
	return nil
}

// UpdateStaffAndStatus reassigns a shift to another staff member and
// transitions its status in one statement. Used by swap execution.
func (r *GeneratedShiftRepository) UpdateStaffAndStatus(ctx context.Context, exec sqlx.ExtContext, id, staffID string, status models.ShiftStatus) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `UPDATE generated_shifts SET staff_id = $2, status = $3, updated_at = $4 WHERE id = $1`, id, staffID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update shift staff and status: %w", err)
	}
	return nil
}
