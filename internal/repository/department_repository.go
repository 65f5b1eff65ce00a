package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

// DepartmentRepository reads department records.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// FindByID loads a department by id.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, timezone, active, created_at FROM departments WHERE id = $1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// ListActive returns all active departments ordered by id.
func (r *DepartmentRepository) ListActive(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, timezone, active, created_at FROM departments WHERE active = TRUE ORDER BY id ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list active departments: %w", err)
	}
	return departments, nil
}
