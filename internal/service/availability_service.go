package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/dto"
	"github.com/oakfield-hms/roster-api/internal/models"
	appErrors "github.com/oakfield-hms/roster-api/pkg/errors"
)

type availabilityReader interface {
	ListByStaff(ctx context.Context, staffID string) ([]models.StaffAvailability, error)
}

type availabilityShiftReader interface {
	ListBlockingOverlaps(ctx context.Context, staffID string, start, end time.Time) ([]models.GeneratedShift, error)
}

// AvailabilityService answers ad-hoc "can this person work this range"
// questions outside a generation run, combining blackout records with
// existing bookings.
type AvailabilityService struct {
	availabilities availabilityReader
	shifts         availabilityShiftReader
	logger         *zap.Logger
}

// NewAvailabilityService wires the availability checker.
func NewAvailabilityService(availabilities availabilityReader, shifts availabilityShiftReader, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{availabilities: availabilities, shifts: shifts, logger: logger}
}

// CheckAvailability reports whether a staff member is free for the given
// range. Unavailability is an answer, not an error: the result carries the
// first blocking reason found.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, staffID string, start, end time.Time) (*dto.AvailabilityResult, error) {
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "availability range start must precede end")
	}

	records, err := s.availabilities.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability records")
	}
	for day := dateOnly(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		for i := range records {
			if records[i].Blocks(day) {
				return &dto.AvailabilityResult{
					Available: false,
					Reason:    fmt.Sprintf("blocked on %s: %s", day.Format("2006-01-02"), records[i].Reason),
				}, nil
			}
		}
	}

	conflicts, err := s.shifts.ListBlockingOverlaps(ctx, staffID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing bookings")
	}
	if len(conflicts) > 0 {
		first := conflicts[0]
		return &dto.AvailabilityResult{
			Available: false,
			Reason: fmt.Sprintf("already booked from %s to %s",
				first.StartDatetime.Format(time.RFC3339), first.EndDatetime.Format(time.RFC3339)),
		}, nil
	}

	return &dto.AvailabilityResult{Available: true}, nil
}
