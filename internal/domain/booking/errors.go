package booking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrPeriodInPast       = errors.New("period start is in the past")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrPriceMismatch      = errors.New("price total does not equal base plus commission")
	ErrIllegalTransition  = errors.New("illegal status transition")
	ErrInvalidStatus      = errors.New("invalid booking status")
	ErrMissingParticipant = errors.New("user and resource item are required")
)

// IllegalTransitionError carries the rejected transition. It matches
// ErrIllegalTransition with errors.Is.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
