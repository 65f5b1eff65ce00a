package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SwapStatus represents the lifecycle of a shift-swap request.
type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusApproved SwapStatus = "APPROVED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// Terminal reports whether the status permits no further transition.
func (s SwapStatus) Terminal() bool {
	return s == SwapStatusApproved || s == SwapStatusRejected
}

// ShiftSwapRequest proposes exchanging the staff assignment of one shift
// with another, or vacating it when no proposed shift is supplied.
type ShiftSwapRequest struct {
	ID                string         `db:"id" json:"id"`
	OriginalShiftID   string         `db:"original_shift_id" json:"original_shift_id"`
	ProposedShiftID   *string        `db:"proposed_shift_id" json:"proposed_shift_id,omitempty"`
	RequestingStaffID string         `db:"requesting_staff_id" json:"requesting_staff_id"`
	RequestedStaffID  *string        `db:"requested_staff_id" json:"requested_staff_id,omitempty"`
	Status            SwapStatus     `db:"status" json:"status"`
	Reason            string         `db:"reason" json:"reason"`
	ExpiresAt         time.Time      `db:"expires_at" json:"expires_at"`
	Constraints       types.JSONText `db:"constraints" json:"constraints"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the request is past its expiration at the given
// instant.
func (r *ShiftSwapRequest) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}
