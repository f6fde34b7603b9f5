package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventCreated        = "booking.created"
	EventConfirmed      = "booking.confirmed"
	EventCancelled      = "booking.cancelled"
	EventCompleted      = "booking.completed"
	EventExpired        = "booking.expired"
	EventPaymentPending = "booking.payment_pending"
	EventPaymentFailed  = "booking.payment_failed"
)

// EventBase is the payload every booking event carries.
type EventBase struct {
	BookingID      uuid.UUID `json:"bookingId"`
	UserID         uuid.UUID `json:"userId"`
	ResourceItemID uuid.UUID `json:"resourceItemId"`
	StartAt        time.Time `json:"startAt"`
	EndAt          time.Time `json:"endAt"`
	At             time.Time `json:"occurredAt"`
}

func (e EventBase) AggregateID() uuid.UUID { return e.BookingID }
func (e EventBase) OccurredAt() time.Time  { return e.At }

type CreatedEvent struct {
	EventBase
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	PaymentDeadline *time.Time      `json:"paymentDeadline,omitempty"`
}

func (CreatedEvent) EventName() string { return EventCreated }

type ConfirmedEvent struct {
	EventBase
}

func (ConfirmedEvent) EventName() string { return EventConfirmed }

type CancelledEvent struct {
	EventBase
	Reason string `json:"reason,omitempty"`
}

func (CancelledEvent) EventName() string { return EventCancelled }

type CompletedEvent struct {
	EventBase
}

func (CompletedEvent) EventName() string { return EventCompleted }

type ExpiredEvent struct {
	EventBase
}

func (ExpiredEvent) EventName() string { return EventExpired }

type PaymentPendingEvent struct {
	EventBase
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentDeadline *time.Time      `json:"paymentDeadline,omitempty"`
}

func (PaymentPendingEvent) EventName() string { return EventPaymentPending }

type PaymentFailedEvent struct {
	EventBase
	Reason string `json:"reason,omitempty"`
}

func (PaymentFailedEvent) EventName() string { return EventPaymentFailed }
