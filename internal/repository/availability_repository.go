package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

const availabilityColumns = `id, staff_id, start_date, end_date, status, is_blackout, reason, created_at`

// AvailabilityRepository reads staff availability and blackout records.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByStaff returns all availability records for one staff member.
func (r *AvailabilityRepository) ListByStaff(ctx context.Context, staffID string) ([]models.StaffAvailability, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_availabilities WHERE staff_id = $1 ORDER BY start_date ASC`, availabilityColumns)
	var records []models.StaffAvailability
	if err := r.db.SelectContext(ctx, &records, query, staffID); err != nil {
		return nil, fmt.Errorf("list availability by staff: %w", err)
	}
	return records, nil
}

// ListForStaffIDs returns availability records for a set of staff members.
func (r *AvailabilityRepository) ListForStaffIDs(ctx context.Context, staffIDs []string) ([]models.StaffAvailability, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM staff_availabilities WHERE staff_id IN (?) ORDER BY staff_id ASC, start_date ASC`, availabilityColumns), staffIDs)
	if err != nil {
		return nil, fmt.Errorf("build availability query: %w", err)
	}
	query = r.db.Rebind(query)
	var records []models.StaffAvailability
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list availability for staff ids: %w", err)
	}
	return records, nil
}
