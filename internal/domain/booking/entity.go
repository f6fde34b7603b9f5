package booking

import (
	"maps"
	"time"

	"booking-engine/internal/domain/shared"

	"github.com/google/uuid"
)

const DefaultPaymentWindow = 10 * time.Minute

const metadataCancellationReason = "cancellationReason"

type Booking struct {
	id                 uuid.UUID
	userID             uuid.UUID
	resourceItemID     uuid.UUID
	period             Period
	price              Price
	status             Status
	notes              *string
	paymentDeadline    *time.Time
	confirmedAt        *time.Time
	cancelledAt        *time.Time
	completedAt        *time.Time
	expiredAt          *time.Time
	paymentFailedAt    *time.Time
	cancellationReason *string
	metadata           map[string]any
	createdAt          time.Time
	updatedAt          time.Time
	version            int64
}

type NewParams struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ResourceItemID uuid.UUID
	Period         Period
	Price          Price
	Notes          *string
	Metadata       map[string]any
	PaymentWindow  time.Duration
}

// New creates a PENDING booking whose payment deadline is now plus the payment window.
func New(p NewParams, now time.Time) (*Booking, shared.Event, error) {
	if p.UserID == uuid.Nil || p.ResourceItemID == uuid.Nil {
		return nil, nil, ErrMissingParticipant
	}
	if p.Period.IsZero() {
		return nil, nil, ErrInvalidPeriod
	}
	if p.Price.Currency() == "" {
		return nil, nil, ErrInvalidPrice
	}

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	window := p.PaymentWindow
	if window <= 0 {
		window = DefaultPaymentWindow
	}
	now = now.UTC()
	deadline := now.Add(window)

	var metadata map[string]any
	if p.Metadata != nil {
		metadata = maps.Clone(p.Metadata)
	}

	b := &Booking{
		id:              id,
		userID:          p.UserID,
		resourceItemID:  p.ResourceItemID,
		period:          p.Period,
		price:           p.Price,
		status:          StatusPending,
		notes:           p.Notes,
		paymentDeadline: &deadline,
		metadata:        metadata,
		createdAt:       now,
		updatedAt:       now,
	}

	return b, CreatedEvent{
		EventBase:       b.eventBase(now),
		Total:           p.Price.Total(),
		Currency:        p.Price.Currency(),
		PaymentDeadline: b.PaymentDeadline(),
	}, nil
}

type ReconstructParams struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	ResourceItemID     uuid.UUID
	Period             Period
	Price              Price
	Status             Status
	Notes              *string
	PaymentDeadline    *time.Time
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	CompletedAt        *time.Time
	ExpiredAt          *time.Time
	PaymentFailedAt    *time.Time
	CancellationReason *string
	Metadata           map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
}

func Reconstruct(p ReconstructParams) *Booking {
	return &Booking{
		id:                 p.ID,
		userID:             p.UserID,
		resourceItemID:     p.ResourceItemID,
		period:             p.Period,
		price:              p.Price,
		status:             p.Status,
		notes:              p.Notes,
		paymentDeadline:    p.PaymentDeadline,
		confirmedAt:        p.ConfirmedAt,
		cancelledAt:        p.CancelledAt,
		completedAt:        p.CompletedAt,
		expiredAt:          p.ExpiredAt,
		paymentFailedAt:    p.PaymentFailedAt,
		cancellationReason: p.CancellationReason,
		metadata:           p.Metadata,
		createdAt:          p.CreatedAt,
		updatedAt:          p.UpdatedAt,
		version:            p.Version,
	}
}

func (b *Booking) Confirm(now time.Time) (shared.Event, error) {
	if err := b.transition(StatusConfirmed, now); err != nil {
		return nil, err
	}
	b.confirmedAt = timePtr(now)
	return ConfirmedEvent{EventBase: b.eventBase(now)}, nil
}

func (b *Booking) Cancel(reason string, now time.Time) (shared.Event, error) {
	if err := b.transition(StatusCancelled, now); err != nil {
		return nil, err
	}
	b.cancelledAt = timePtr(now)
	if reason != "" {
		r := reason
		b.cancellationReason = &r
		if b.metadata != nil {
			b.metadata[metadataCancellationReason] = reason
		}
	}
	return CancelledEvent{EventBase: b.eventBase(now), Reason: reason}, nil
}

func (b *Booking) Complete(now time.Time) (shared.Event, error) {
	if err := b.transition(StatusCompleted, now); err != nil {
		return nil, err
	}
	b.completedAt = timePtr(now)
	return CompletedEvent{EventBase: b.eventBase(now)}, nil
}

func (b *Booking) Expire(now time.Time) (shared.Event, error) {
	if err := b.transition(StatusExpired, now); err != nil {
		return nil, err
	}
	b.expiredAt = timePtr(now)
	return ExpiredEvent{EventBase: b.eventBase(now)}, nil
}

func (b *Booking) MarkPaymentPending(now time.Time) (shared.Event, error) {
	if err := b.transition(StatusPaymentPending, now); err != nil {
		return nil, err
	}
	return PaymentPendingEvent{
		EventBase:       b.eventBase(now),
		Amount:          b.price.Total(),
		Currency:        b.price.Currency(),
		PaymentDeadline: b.PaymentDeadline(),
	}, nil
}

func (b *Booking) MarkPaymentFailed(reason string, now time.Time) (shared.Event, error) {
	if err := b.transition(StatusPaymentFailed, now); err != nil {
		return nil, err
	}
	b.paymentFailedAt = timePtr(now)
	return PaymentFailedEvent{EventBase: b.eventBase(now), Reason: reason}, nil
}

func (b *Booking) transition(target Status, now time.Time) error {
	if !b.status.CanTransitionTo(target) {
		return &IllegalTransitionError{From: b.status, To: target}
	}
	b.status = target
	b.updatedAt = now.UTC()
	return nil
}

func (b *Booking) eventBase(now time.Time) EventBase {
	return EventBase{
		BookingID:      b.id,
		UserID:         b.userID,
		ResourceItemID: b.resourceItemID,
		StartAt:        b.period.Start(),
		EndAt:          b.period.End(),
		At:             now.UTC(),
	}
}

// MarkPersisted is called by stores after a successful write so the next save checks the new version.
func (b *Booking) MarkPersisted(version int64) {
	b.version = version
}

func (b *Booking) IsPaymentOverdue(now time.Time) bool {
	return b.paymentDeadline != nil && now.After(*b.paymentDeadline)
}

func (b *Booking) IsActive() bool       { return b.status.IsActive() }
func (b *Booking) CanBeCancelled() bool { return b.status.CanTransitionTo(StatusCancelled) }
func (b *Booking) CanBeConfirmed() bool { return b.status.CanTransitionTo(StatusConfirmed) }
func (b *Booking) CanBeCompleted() bool { return b.status.CanTransitionTo(StatusCompleted) }
func (b *Booking) CanBeExpired() bool   { return b.status.CanTransitionTo(StatusExpired) }

func (b *Booking) Overlaps(other *Booking) bool {
	return b.period.Overlaps(other.period)
}

func (b *Booking) TimeUntilPaymentDeadline(now time.Time) time.Duration {
	if b.paymentDeadline == nil {
		return 0
	}
	return clampZero(b.paymentDeadline.Sub(now))
}

func (b *Booking) TimeUntilStart(now time.Time) time.Duration {
	return clampZero(b.period.Start().Sub(now))
}

func (b *Booking) TimeUntilEnd(now time.Time) time.Duration {
	return clampZero(b.period.End().Sub(now))
}

func (b *Booking) ID() uuid.UUID               { return b.id }
func (b *Booking) UserID() uuid.UUID           { return b.userID }
func (b *Booking) ResourceItemID() uuid.UUID   { return b.resourceItemID }
func (b *Booking) Period() Period              { return b.period }
func (b *Booking) Price() Price                { return b.price }
func (b *Booking) Status() Status              { return b.status }
func (b *Booking) Notes() *string              { return b.notes }
func (b *Booking) PaymentDeadline() *time.Time { return copyTime(b.paymentDeadline) }
func (b *Booking) ConfirmedAt() *time.Time     { return copyTime(b.confirmedAt) }
func (b *Booking) CancelledAt() *time.Time     { return copyTime(b.cancelledAt) }
func (b *Booking) CompletedAt() *time.Time     { return copyTime(b.completedAt) }
func (b *Booking) ExpiredAt() *time.Time       { return copyTime(b.expiredAt) }
func (b *Booking) PaymentFailedAt() *time.Time { return copyTime(b.paymentFailedAt) }
func (b *Booking) CancellationReason() *string { return b.cancellationReason }
func (b *Booking) Metadata() map[string]any    { return maps.Clone(b.metadata) }
func (b *Booking) CreatedAt() time.Time        { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time        { return b.updatedAt }
func (b *Booking) Version() int64              { return b.version }

// Clone returns an independent copy; in-memory stores hand these out so callers cannot mutate stored state.
func (b *Booking) Clone() *Booking {
	cp := *b
	cp.metadata = maps.Clone(b.metadata)
	cp.paymentDeadline = copyTime(b.paymentDeadline)
	cp.confirmedAt = copyTime(b.confirmedAt)
	cp.cancelledAt = copyTime(b.cancelledAt)
	cp.completedAt = copyTime(b.completedAt)
	cp.expiredAt = copyTime(b.expiredAt)
	cp.paymentFailedAt = copyTime(b.paymentFailedAt)
	return &cp
}

func (b *Booking) Equals(other *Booking) bool {
	return other != nil && shared.SameIdentity(b, other)
}

var _ shared.Equatable[*Booking] = (*Booking)(nil)

func timePtr(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func clampZero(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
