package commands

import (
	"fmt"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidPeriod           = errs.New("invalid booking period")
	ErrPeriodOverlap           = errs.New("period overlaps an active booking")
	ErrLockUnavailable         = shared.ErrLockUnavailable
	ErrIllegalTransition       = booking.ErrIllegalTransition
	ErrBookingNotFound         = errs.New("booking not found")
	ErrInvalidBooking          = errs.New("invalid booking request")
	ErrInvalidPrice            = errs.New("invalid price")
	ErrConcurrentModification  = errs.New("booking was modified concurrently")
	ErrInvalidPaymentStatus    = errs.New("invalid payment status")
	ErrStrategyNotFound        = errs.New("commission strategy not found")
	ErrStrategyNameConflict    = errs.New("commission strategy name already exists")
	ErrInvalidStrategy         = errs.New("invalid commission strategy")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

// PeriodOverlapError lists the active bookings that collide with the requested period.
// ConflictingIDs is empty when the store rejected the write without naming them.
type PeriodOverlapError struct {
	ConflictingIDs []uuid.UUID
	Err            error
}

func (e *PeriodOverlapError) Error() string {
	if len(e.ConflictingIDs) == 0 {
		return ErrPeriodOverlap.Error()
	}
	return fmt.Sprintf("%s: %v", ErrPeriodOverlap.Error(), e.ConflictingIDs)
}

func (e *PeriodOverlapError) Is(target error) bool {
	return target == ErrPeriodOverlap
}

func (e *PeriodOverlapError) Unwrap() error {
	return e.Err
}
