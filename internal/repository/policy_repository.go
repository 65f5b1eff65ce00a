package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

// WeekendPolicyRepository reads weekend shift policies.
type WeekendPolicyRepository struct {
	db *sqlx.DB
}

// NewWeekendPolicyRepository creates a new policy repository.
func NewWeekendPolicyRepository(db *sqlx.DB) *WeekendPolicyRepository {
	return &WeekendPolicyRepository{db: db}
}

// FindByDepartment returns the department's weekend policy, or nil when none
// is configured.
func (r *WeekendPolicyRepository) FindByDepartment(ctx context.Context, departmentID string) (*models.WeekendShiftPolicy, error) {
	const query = `SELECT id, department_id, max_weekend_shifts, max_consecutive_weekends, max_weekend_per_quarter, created_at FROM weekend_shift_policies WHERE department_id = $1`
	var policy models.WeekendShiftPolicy
	if err := r.db.GetContext(ctx, &policy, query, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load weekend policy: %w", err)
	}
	return &policy, nil
}
