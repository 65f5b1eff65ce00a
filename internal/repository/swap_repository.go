package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oakfield-hms/roster-api/internal/models"
)

const swapColumns = `id, original_shift_id, proposed_shift_id, requesting_staff_id, requested_staff_id, status, reason, expires_at, constraints, created_at, updated_at`

// SwapRequestRepository provides persistence for shift swap requests.
type SwapRequestRepository struct {
	db *sqlx.DB
}

// NewSwapRequestRepository creates a new swap request repository.
func NewSwapRequestRepository(db *sqlx.DB) *SwapRequestRepository {
	return &SwapRequestRepository{db: db}
}

// FindByID loads a swap request by id.
func (r *SwapRequestRepository) FindByID(ctx context.Context, id string) (*models.ShiftSwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_swap_requests WHERE id = $1`, swapColumns)
	var request models.ShiftSwapRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create stores a new PENDING swap request.
func (r *SwapRequestRepository) Create(ctx context.Context, request *models.ShiftSwapRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO shift_swap_requests (id, original_shift_id, proposed_shift_id, requesting_staff_id, requested_staff_id, status, reason, expires_at, constraints, created_at, updated_at) VALUES (:id, :original_shift_id, :proposed_shift_id, :requesting_staff_id, :requested_staff_id, :status, :reason, :expires_at, :constraints, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}
	return nil
}

// UpdateStatus transitions a swap request, guarding against concurrent
// resolution by requiring the current status to still be PENDING.
func (r *SwapRequestRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SwapStatus) (bool, error) {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx, `UPDATE shift_swap_requests SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`, id, status, time.Now().UTC(), models.SwapStatusPending)
	if err != nil {
		return false, fmt.Errorf("update swap status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update swap status rows: %w", err)
	}
	return affected == 1, nil
}

// ListExpiredPending returns PENDING requests whose expiration is in the past.
func (r *SwapRequestRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]models.ShiftSwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_swap_requests WHERE status = $1 AND expires_at < $2 ORDER BY expires_at ASC`, swapColumns)
	var requests []models.ShiftSwapRequest
	if err := r.db.SelectContext(ctx, &requests, query, models.SwapStatusPending, now); err != nil {
		return nil, fmt.Errorf("list expired pending swaps: %w", err)
	}
	return requests, nil
}
