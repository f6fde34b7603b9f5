package booking

import "strings"

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCancelled      Status = "CANCELLED"
	StatusCompleted      Status = "COMPLETED"
	StatusExpired        Status = "EXPIRED"
	StatusPaymentPending Status = "PAYMENT_PENDING"
	StatusPaymentFailed  Status = "PAYMENT_FAILED"
)

var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled, StatusExpired, StatusPaymentPending},
	StatusPaymentPending: {StatusConfirmed, StatusCancelled, StatusExpired, StatusPaymentFailed},
	StatusConfirmed:      {StatusCompleted, StatusCancelled},
}

func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusConfirmed,
		StatusCancelled,
		StatusCompleted,
		StatusExpired,
		StatusPaymentPending,
		StatusPaymentFailed,
	}
}

// ActiveStatuses are the statuses that occupy the resource item's timeline.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusPaymentPending}
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted,
		StatusExpired, StatusPaymentPending, StatusPaymentFailed:
		return true
	default:
		return false
	}
}

func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaymentPending:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
