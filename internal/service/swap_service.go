package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/dto"
	"github.com/oakfield-hms/roster-api/internal/models"
	appErrors "github.com/oakfield-hms/roster-api/pkg/errors"
)

type swapRequestStore interface {
	FindByID(ctx context.Context, id string) (*models.ShiftSwapRequest, error)
	Create(ctx context.Context, request *models.ShiftSwapRequest) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SwapStatus) (bool, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]models.ShiftSwapRequest, error)
}

type swapShiftStore interface {
	FindByID(ctx context.Context, id string) (*models.GeneratedShift, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ShiftStatus) error
	UpdateStaffAndStatus(ctx context.Context, exec sqlx.ExtContext, id, staffID string, status models.ShiftStatus) error
}

type swapHistoryStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.ShiftAssignmentHistory) error
	ListByShift(ctx context.Context, shiftID string) ([]models.ShiftAssignmentHistory, error)
}

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type availabilityChecker interface {
	CheckAvailability(ctx context.Context, staffID string, start, end time.Time) (*dto.AvailabilityResult, error)
}

// SwapService manages the shift-swap lifecycle: request, approve or reject,
// and expiry sweeps. Approval mutates both shifts atomically and leaves an
// audit trail.
type SwapService struct {
	db           txBeginner
	requests     swapRequestStore
	shifts       swapShiftStore
	histories    swapHistoryStore
	availability availabilityChecker
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewSwapService wires the swap engine.
func NewSwapService(db txBeginner, requests swapRequestStore, shifts swapShiftStore, histories swapHistoryStore, availability availabilityChecker, validate *validator.Validate, logger *zap.Logger) *SwapService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapService{
		db:           db,
		requests:     requests,
		shifts:       shifts,
		histories:    histories,
		availability: availability,
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
}

// RequestSwap validates the involved shifts and records a PENDING request.
// Both the original and, when supplied, the proposed shift must currently be
// SCHEDULED.
func (s *SwapService) RequestSwap(ctx context.Context, input dto.RequestSwapInput) (*models.ShiftSwapRequest, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap request")
	}

	original, err := s.shifts.FindByID(ctx, input.OriginalShiftID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("original shift %s not found", input.OriginalShiftID))
	}
	if original.Status != models.ShiftStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, fmt.Sprintf("original shift %s is %s, not SCHEDULED", original.ID, original.Status))
	}
	if original.StaffID != input.RequestingStaffID {
		return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, fmt.Sprintf("shift %s does not belong to staff %s", original.ID, input.RequestingStaffID))
	}

	requestedStaffID := input.RequestedStaffID
	if input.ProposedShiftID != nil {
		proposed, err := s.shifts.FindByID(ctx, *input.ProposedShiftID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("proposed shift %s not found", *input.ProposedShiftID))
		}
		if proposed.Status != models.ShiftStatusScheduled {
			return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, fmt.Sprintf("proposed shift %s is %s, not SCHEDULED", proposed.ID, proposed.Status))
		}
		if proposed.DepartmentID != original.DepartmentID {
			return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, "swaps must stay within one department")
		}
		staffID := proposed.StaffID
		requestedStaffID = &staffID
	} else if requestedStaffID != nil && s.availability != nil {
		// A directed handover: the counterpart must be free to absorb the
		// original shift before the request is even recorded.
		result, err := s.availability.CheckAvailability(ctx, *requestedStaffID, original.StartDatetime, original.EndDatetime)
		if err != nil {
			return nil, err
		}
		if !result.Available {
			return nil, appErrors.Clone(appErrors.ErrDoubleBooking, fmt.Sprintf("staff %s cannot take shift %s: %s", *requestedStaffID, original.ID, result.Reason))
		}
	}

	expiresIn := input.ExpiresInHours
	if expiresIn == 0 {
		expiresIn = 72
	}
	request := &models.ShiftSwapRequest{
		OriginalShiftID:   input.OriginalShiftID,
		ProposedShiftID:   input.ProposedShiftID,
		RequestingStaffID: input.RequestingStaffID,
		RequestedStaffID:  requestedStaffID,
		Status:            models.SwapStatusPending,
		Reason:            input.Reason,
		ExpiresAt:         s.now().Add(time.Duration(expiresIn) * time.Hour),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store swap request")
	}

	s.logger.Info("swap request created",
		zap.String("request_id", request.ID),
		zap.String("original_shift_id", request.OriginalShiftID),
		zap.String("requesting_staff_id", request.RequestingStaffID))
	return request, nil
}

// ProcessSwap resolves a pending request. Approval re-validates both shifts,
// then inside one transaction marks the request, transitions the shifts to
// SWAPPED with exchanged staff, and writes the audit rows. Rejection only
// records the verdict; shifts stay untouched.
func (s *SwapService) ProcessSwap(ctx context.Context, input dto.ProcessSwapInput) (*dto.SwapResult, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap decision")
	}

	request, err := s.requests.FindByID(ctx, input.SwapRequestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("swap request %s not found", input.SwapRequestID))
	}
	if request.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, fmt.Sprintf("swap request %s already %s", request.ID, request.Status))
	}
	if request.Expired(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrSwapExpired, fmt.Sprintf("swap request %s expired at %s", request.ID, request.ExpiresAt.Format(time.RFC3339)))
	}

	if input.Decision == dto.SwapDecisionReject {
		return s.reject(ctx, request, input.DecidingUserID, input.Notes)
	}
	return s.approve(ctx, request, input.DecidingUserID, input.Notes)
}

func (s *SwapService) approve(ctx context.Context, request *models.ShiftSwapRequest, decidedBy, notes string) (*dto.SwapResult, error) {
	original, err := s.shifts.FindByID(ctx, request.OriginalShiftID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("original shift %s not found", request.OriginalShiftID))
	}
	if original.Status != models.ShiftStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, fmt.Sprintf("original shift %s is %s, not SCHEDULED", original.ID, original.Status))
	}

	var proposed *models.GeneratedShift
	if request.ProposedShiftID != nil {
		proposed, err = s.shifts.FindByID(ctx, *request.ProposedShiftID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("proposed shift %s not found", *request.ProposedShiftID))
		}
		if proposed.Status != models.ShiftStatusScheduled {
			return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, fmt.Sprintf("proposed shift %s is %s, not SCHEDULED", proposed.ID, proposed.Status))
		}
		if proposed.DepartmentID != original.DepartmentID {
			return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, "swaps must stay within one department")
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open swap transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	claimed, err := s.requests.UpdateStatus(ctx, tx, request.ID, models.SwapStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve swap request")
	}
	if !claimed {
		return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, fmt.Sprintf("swap request %s was resolved concurrently", request.ID))
	}

	if proposed != nil {
		if err := s.shifts.UpdateStaffAndStatus(ctx, tx, original.ID, proposed.StaffID, models.ShiftStatusSwapped); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign original shift")
		}
		if err := s.shifts.UpdateStaffAndStatus(ctx, tx, proposed.ID, original.StaffID, models.ShiftStatusSwapped); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign proposed shift")
		}
		entries := []models.ShiftAssignmentHistory{
			{
				ShiftID:        original.ID,
				PreviousStatus: models.ShiftStatusScheduled,
				NewStatus:      models.ShiftStatusSwapped,
				ChangedBy:      decidedBy,
				Notes:          s.auditNote(request, notes),
			},
			{
				ShiftID:        proposed.ID,
				PreviousStatus: models.ShiftStatusScheduled,
				NewStatus:      models.ShiftStatusSwapped,
				ChangedBy:      decidedBy,
				Notes:          s.auditNote(request, notes),
			},
		}
		for i := range entries {
			if err := s.histories.Create(ctx, tx, &entries[i]); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record swap history")
			}
		}
		original.StaffID, proposed.StaffID = proposed.StaffID, original.StaffID
		original.Status = models.ShiftStatusSwapped
		proposed.Status = models.ShiftStatusSwapped
	} else {
		// No counterpart shift: the original is still marked SWAPPED, and the
		// history row records that no replacement was supplied. The headcount
		// gap surfaces through the next generation run's shortage reporting.
		if err := s.shifts.UpdateStatus(ctx, tx, original.ID, models.ShiftStatusSwapped); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release original shift")
		}
		entry := models.ShiftAssignmentHistory{
			ShiftID:        original.ID,
			PreviousStatus: models.ShiftStatusScheduled,
			NewStatus:      models.ShiftStatusSwapped,
			ChangedBy:      decidedBy,
			Notes:          s.auditNote(request, notes) + "; no replacement shift supplied",
		}
		if err := s.histories.Create(ctx, tx, &entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record swap history")
		}
		original.Status = models.ShiftStatusSwapped
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit swap")
	}

	history, err := s.histories.ListByShift(ctx, original.ID)
	if err != nil {
		s.logger.Warn("swap committed but history read back failed",
			zap.String("request_id", request.ID), zap.Error(err))
	}

	s.logger.Info("swap approved",
		zap.String("request_id", request.ID),
		zap.String("decided_by", decidedBy))
	return &dto.SwapResult{
		RequestID:     request.ID,
		Status:        models.SwapStatusApproved,
		OriginalShift: original,
		ProposedShift: proposed,
		History:       history,
	}, nil
}

func (s *SwapService) reject(ctx context.Context, request *models.ShiftSwapRequest, decidedBy, notes string) (*dto.SwapResult, error) {
	claimed, err := s.requests.UpdateStatus(ctx, nil, request.ID, models.SwapStatusRejected)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject swap request")
	}
	if !claimed {
		return nil, appErrors.Clone(appErrors.ErrInvalidSwapState, fmt.Sprintf("swap request %s was resolved concurrently", request.ID))
	}

	entry := models.ShiftAssignmentHistory{
		ShiftID:        request.OriginalShiftID,
		PreviousStatus: models.ShiftStatusScheduled,
		NewStatus:      models.ShiftStatusScheduled,
		ChangedBy:      decidedBy,
		Notes:          s.auditNote(request, notes),
	}
	if err := s.histories.Create(ctx, nil, &entry); err != nil {
		s.logger.Warn("swap rejected but history write failed",
			zap.String("request_id", request.ID), zap.Error(err))
	}

	s.logger.Info("swap rejected",
		zap.String("request_id", request.ID),
		zap.String("decided_by", decidedBy))
	return &dto.SwapResult{
		RequestID: request.ID,
		Status:    models.SwapStatusRejected,
	}, nil
}

// ExpireStaleSwaps auto-rejects every PENDING request past its expiration and
// returns how many were closed. A single failing request is logged and
// skipped so one bad row cannot stall the sweep.
func (s *SwapService) ExpireStaleSwaps(ctx context.Context) (int, error) {
	stale, err := s.requests.ListExpiredPending(ctx, s.now())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expired swaps")
	}

	expired := 0
	for i := range stale {
		request := &stale[i]
		claimed, err := s.requests.UpdateStatus(ctx, nil, request.ID, models.SwapStatusRejected)
		if err != nil {
			s.logger.Error("failed to expire swap request",
				zap.String("request_id", request.ID), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}
		entry := models.ShiftAssignmentHistory{
			ShiftID:        request.OriginalShiftID,
			PreviousStatus: models.ShiftStatusScheduled,
			NewStatus:      models.ShiftStatusScheduled,
			ChangedBy:      "system",
			Notes:          fmt.Sprintf("swap request %s expired at %s", request.ID, request.ExpiresAt.Format(time.RFC3339)),
		}
		if err := s.histories.Create(ctx, nil, &entry); err != nil {
			s.logger.Warn("expired swap history write failed",
				zap.String("request_id", request.ID), zap.Error(err))
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("stale swap requests expired", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *SwapService) auditNote(request *models.ShiftSwapRequest, notes string) string {
	if notes == "" {
		return fmt.Sprintf("swap request %s: %s", request.ID, request.Reason)
	}
	return fmt.Sprintf("swap request %s: %s", request.ID, notes)
}
