package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

const assignmentColumns = `id, staff_id, department_id, template_id, role, assignment_start, assignment_end, active, created_at`

// AssignmentRepository provides persistence for department member assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListActiveByDepartment returns active assignments for a department ordered
// by staff id for deterministic processing.
func (r *AssignmentRepository) ListActiveByDepartment(ctx context.Context, departmentID string) ([]models.DepartmentMemberAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM department_member_assignments WHERE department_id = $1 AND active = TRUE ORDER BY staff_id ASC, template_id ASC`, assignmentColumns)
	var assignments []models.DepartmentMemberAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, departmentID); err != nil {
		return nil, fmt.Errorf("list active assignments by department: %w", err)
	}
	return assignments, nil
}

// ListActive returns all active assignments. When futureOnly is set, only
// assignments starting after the reference instant are returned (seed mode).
func (r *AssignmentRepository) ListActive(ctx context.Context, futureOnly bool, now time.Time) ([]models.DepartmentMemberAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM department_member_assignments WHERE active = TRUE`, assignmentColumns)
	args := []interface{}{}
	if futureOnly {
		query += ` AND assignment_start > $1`
		args = append(args, now)
	}
	query += ` ORDER BY staff_id ASC, template_id ASC`
	var assignments []models.DepartmentMemberAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list active assignments: %w", err)
	}
	return assignments, nil
}

// Create stores a new assignment record.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.DepartmentMemberAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO department_member_assignments (id, staff_id, department_id, template_id, role, assignment_start, assignment_end, active, created_at) VALUES (:id, :staff_id, :department_id, :template_id, :role, :assignment_start, :assignment_end, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}
