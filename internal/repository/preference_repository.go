package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

// PreferenceRepository reads staff shift preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates a new preference repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListForStaffIDs returns preferences for a set of staff members.
func (r *PreferenceRepository) ListForStaffIDs(ctx context.Context, staffIDs []string) ([]models.ShiftPreference, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, staff_id, template_id, weight, created_at FROM shift_preferences WHERE staff_id IN (?) ORDER BY staff_id ASC, weight DESC`, staffIDs)
	if err != nil {
		return nil, fmt.Errorf("build preference query: %w", err)
	}
	query = r.db.Rebind(query)
	var prefs []models.ShiftPreference
	if err := r.db.SelectContext(ctx, &prefs, query, args...); err != nil {
		return nil, fmt.Errorf("list preferences for staff ids: %w", err)
	}
	return prefs, nil
}
