package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

// HistoryRepository appends shift assignment audit rows. Append-only.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create appends an audit row using the provided executor so swap execution
// can include it in its transaction.
func (r *HistoryRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.ShiftAssignmentHistory) error {
	if exec == nil {
		exec = r.db
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO shift_assignment_histories (id, shift_id, previous_status, new_status, changed_by, changed_at, notes) VALUES (:id, :shift_id, :previous_status, :new_status, :changed_by, :changed_at, :notes)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
		return fmt.Errorf("create shift history: %w", err)
	}
	return nil
}

// ListByShift returns audit rows for a shift in chronological order.
func (r *HistoryRepository) ListByShift(ctx context.Context, shiftID string) ([]models.ShiftAssignmentHistory, error) {
	const query = `SELECT id, shift_id, previous_status, new_status, changed_by, changed_at, notes FROM shift_assignment_histories WHERE shift_id = $1 ORDER BY changed_at ASC`
	var entries []models.ShiftAssignmentHistory
	if err := r.db.SelectContext(ctx, &entries, query, shiftID); err != nil {
		return nil, fmt.Errorf("list shift history: %w", err)
	}
	return entries, nil
}
