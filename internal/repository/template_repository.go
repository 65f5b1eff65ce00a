package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

const shiftTemplateColumns = `id, department_id, name, start_minute, end_minute, recurrence, recur_interval, weekdays, month_day, valid_from, valid_until, required_role, rotation_group, weekday_min_staff, weekend_min_staff, max_consecutive_weeks, cooldown_weeks, min_gap_minutes, penalty_weight, active, created_at, updated_at`

// ShiftTemplateRepository provides persistence for shift templates.
type ShiftTemplateRepository struct {
	db *sqlx.DB
}

// NewShiftTemplateRepository creates a new template repository.
func NewShiftTemplateRepository(db *sqlx.DB) *ShiftTemplateRepository {
	return &ShiftTemplateRepository{db: db}
}

// FindByID loads a template by id.
func (r *ShiftTemplateRepository) FindByID(ctx context.Context, id string) (*models.ShiftTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_templates WHERE id = $1`, shiftTemplateColumns)
	var tmpl models.ShiftTemplate
	if err := r.db.GetContext(ctx, &tmpl, query, id); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// ListActiveByDepartment returns active templates for a department ordered by id.
func (r *ShiftTemplateRepository) ListActiveByDepartment(ctx context.Context, departmentID string) ([]models.ShiftTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_templates WHERE department_id = $1 AND active = TRUE ORDER BY id ASC`, shiftTemplateColumns)
	var templates []models.ShiftTemplate
	if err := r.db.SelectContext(ctx, &templates, query, departmentID); err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	return templates, nil
}

// Create stores a new template record.
func (r *ShiftTemplateRepository) Create(ctx context.Context, tmpl *models.ShiftTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = now

	const query = `INSERT INTO shift_templates (id, department_id, name, start_minute, end_minute, recurrence, recur_interval, weekdays, month_day, valid_from, valid_until, required_role, rotation_group, weekday_min_staff, weekend_min_staff, max_consecutive_weeks, cooldown_weeks, min_gap_minutes, penalty_weight, active, created_at, updated_at) VALUES (:id, :department_id, :name, :start_minute, :end_minute, :recurrence, :recur_interval, :weekdays, :month_day, :valid_from, :valid_until, :required_role, :rotation_group, :weekday_min_staff, :weekend_min_staff, :max_consecutive_weeks, :cooldown_weeks, :min_gap_minutes, :penalty_weight, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tmpl); err != nil {
		return fmt.Errorf("create shift template: %w", err)
	}
	return nil
}

// Deactivate marks a template inactive; templates referenced by shifts are
// never deleted.
func (r *ShiftTemplateRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE shift_templates SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate shift template: %w", err)
	}
	return nil
}
