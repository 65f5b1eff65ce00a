package dto

import "github.com/oakfield-hms/roster-api/internal/models"

// SwapDecision is the approver's verdict on a pending swap.
type SwapDecision string

const (
	SwapDecisionApprove SwapDecision = "APPROVE"
	SwapDecisionReject  SwapDecision = "REJECT"
)

// RequestSwapInput creates a new PENDING swap request.
type RequestSwapInput struct {
	OriginalShiftID   string  `json:"original_shift_id" validate:"required"`
	ProposedShiftID   *string `json:"proposed_shift_id,omitempty"`
	RequestingStaffID string  `json:"requesting_staff_id" validate:"required"`
	RequestedStaffID  *string `json:"requested_staff_id,omitempty"`
	Reason            string  `json:"reason" validate:"required"`
	ExpiresInHours    int     `json:"expires_in_hours" validate:"gte=0"`
}

// ProcessSwapInput resolves a pending swap request.
type ProcessSwapInput struct {
	SwapRequestID  string       `json:"swap_request_id" validate:"required"`
	Decision       SwapDecision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	DecidingUserID string       `json:"deciding_user_id" validate:"required"`
	Notes          string       `json:"notes"`
}

// SwapResult reports the post-processing state of the affected shifts.
type SwapResult struct {
	RequestID     string                  `json:"request_id"`
	Status        models.SwapStatus       `json:"status"`
	OriginalShift *models.GeneratedShift  `json:"original_shift,omitempty"`
	ProposedShift *models.GeneratedShift  `json:"proposed_shift,omitempty"`
	History       []models.ShiftAssignmentHistory `json:"history,omitempty"`
}
