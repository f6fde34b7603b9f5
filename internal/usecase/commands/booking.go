package commands

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/pricing"
	domainshared "booking-engine/internal/domain/shared"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateBookingParams struct {
	UserID         uuid.UUID
	ResourceItemID uuid.UUID
	StartAt        time.Time
	EndAt          time.Time
	BasePrice      decimal.Decimal
	Currency       string
	ResourceType   string
	// DurationHours overrides the period length for pricing when positive.
	DurationHours float64
	Notes         *string
	Metadata      map[string]any
}

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentPending   PaymentStatus = "pending"
)

type PaymentOutcome struct {
	BookingID uuid.UUID
	Status    PaymentStatus
	Reason    string
}

type BookingCommands interface {
	Create(ctx context.Context, params CreateBookingParams) (*booking.Booking, error)
	Confirm(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*booking.Booking, error)
	Complete(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Expire(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	MarkPaymentPending(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID, reason string) (*booking.Booking, error)
	ProcessPayment(ctx context.Context, outcome PaymentOutcome) (*booking.Booking, error)
	ExpireOverdue(ctx context.Context) (SweepResult, error)
}

type bookingOrchestrator struct {
	bookings   BookingRepository
	strategies StrategyRepository
	lock       *shared.DistributedLock
	checker    *booking.AvailabilityChecker
	resolver   *pricing.Resolver
	publisher  EventPublisher
	clock      clock.Clock
	cfg        config.BookingConfig
	logger     *slog.Logger
}

func NewBookingUseCase(
	bookings BookingRepository,
	strategies StrategyRepository,
	lock *shared.DistributedLock,
	resolver *pricing.Resolver,
	publisher EventPublisher,
	clock clock.Clock,
	cfg config.BookingConfig,
	logger *slog.Logger,
) BookingCommands {
	return &bookingOrchestrator{
		bookings:   bookings,
		strategies: strategies,
		lock:       lock,
		checker:    booking.NewAvailabilityChecker(bookings),
		resolver:   resolver,
		publisher:  publisher,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Create runs the check-then-insert under the interval lock. The store's own overlap
// rejection is the second line of defence for intervals the lock key does not cover.
func (o *bookingOrchestrator) Create(ctx context.Context, p CreateBookingParams) (*booking.Booking, error) {
	now := o.clock.Now()

	period, err := booking.NewPeriod(p.StartAt, p.EndAt, now)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidPeriod)
	}
	if p.UserID == uuid.Nil || p.ResourceItemID == uuid.Nil {
		return nil, errs.Mark(booking.ErrMissingParticipant, ErrInvalidBooking)
	}

	currency := p.Currency
	if currency == "" {
		currency = o.cfg.DefaultCurrency
	}
	hours := p.DurationHours
	if hours <= 0 {
		hours = period.Hours()
	}

	var (
		created *booking.Booking
		event   domainshared.Event
	)
	key := o.lock.Key(p.ResourceItemID, period)
	err = o.lock.WithLock(ctx, key, func(ctx context.Context) error {
		availability, err := o.checker.Check(ctx, p.ResourceItemID, period, nil)
		if err != nil {
			return errs.Mark(errs.Wrap(err, "failed to check availability"), ErrDatabaseOperationFailed)
		}
		if !availability.IsAvailable {
			return &PeriodOverlapError{ConflictingIDs: availability.ConflictingIDs()}
		}

		strategies, err := o.strategies.FindActive(ctx)
		if err != nil {
			return errs.Mark(errs.Wrap(err, "failed to load commission strategies"), ErrDatabaseOperationFailed)
		}
		quote, err := o.resolver.Resolve(pricing.Input{
			BasePrice:     p.BasePrice,
			Currency:      currency,
			ResourceType:  p.ResourceType,
			DurationHours: hours,
		}, strategies)
		if err != nil {
			return errs.Mark(err, ErrInvalidPrice)
		}
		price, err := quote.ToPrice()
		if err != nil {
			return errs.Mark(err, ErrInvalidPrice)
		}

		b, ev, err := booking.New(booking.NewParams{
			UserID:         p.UserID,
			ResourceItemID: p.ResourceItemID,
			Period:         period,
			Price:          price,
			Notes:          p.Notes,
			Metadata:       p.Metadata,
			PaymentWindow:  o.cfg.PaymentWindow,
		}, now)
		if err != nil {
			return errs.Mark(err, ErrInvalidBooking)
		}

		if err := o.bookings.Save(ctx, b); err != nil {
			return o.mapSaveErr(err)
		}
		created, event = b, ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("booking created",
		"booking_id", created.ID(),
		"resource_item_id", created.ResourceItemID(),
		"period", created.Period().String(),
		"total", created.Price().Total().StringFixed(2),
		"currency", created.Price().Currency())

	o.publish(ctx, event)
	return created, nil
}

func (o *bookingOrchestrator) Confirm(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return o.transition(ctx, id, func(b *booking.Booking, now time.Time) (domainshared.Event, error) {
		return b.Confirm(now)
	})
}

func (o *bookingOrchestrator) Cancel(ctx context.Context, id uuid.UUID, reason string) (*booking.Booking, error) {
	return o.transition(ctx, id, func(b *booking.Booking, now time.Time) (domainshared.Event, error) {
		return b.Cancel(reason, now)
	})
}

func (o *bookingOrchestrator) Complete(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return o.transition(ctx, id, func(b *booking.Booking, now time.Time) (domainshared.Event, error) {
		return b.Complete(now)
	})
}

func (o *bookingOrchestrator) Expire(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return o.transition(ctx, id, func(b *booking.Booking, now time.Time) (domainshared.Event, error) {
		return b.Expire(now)
	})
}

func (o *bookingOrchestrator) MarkPaymentPending(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return o.transition(ctx, id, func(b *booking.Booking, now time.Time) (domainshared.Event, error) {
		return b.MarkPaymentPending(now)
	})
}

func (o *bookingOrchestrator) MarkPaymentFailed(ctx context.Context, id uuid.UUID, reason string) (*booking.Booking, error) {
	return o.transition(ctx, id, func(b *booking.Booking, now time.Time) (domainshared.Event, error) {
		return b.MarkPaymentFailed(reason, now)
	})
}

func (o *bookingOrchestrator) ProcessPayment(ctx context.Context, outcome PaymentOutcome) (*booking.Booking, error) {
	switch outcome.Status {
	case PaymentSucceeded:
		return o.Confirm(ctx, outcome.BookingID)
	case PaymentFailed:
		return o.MarkPaymentFailed(ctx, outcome.BookingID, outcome.Reason)
	case PaymentPending:
		return o.MarkPaymentPending(ctx, outcome.BookingID)
	default:
		return nil, errs.Wrapf(ErrInvalidPaymentStatus, "status %q", outcome.Status)
	}
}

// transition applies one state change to a single aggregate. No lock is taken; the
// version check in Save rejects a concurrent writer.
func (o *bookingOrchestrator) transition(
	ctx context.Context,
	id uuid.UUID,
	apply func(b *booking.Booking, now time.Time) (domainshared.Event, error),
) (*booking.Booking, error) {
	b, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := b.Status()
	event, err := apply(b, o.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := o.bookings.Save(ctx, b); err != nil {
		return nil, o.mapSaveErr(err)
	}

	o.logger.Info("booking transitioned",
		"booking_id", b.ID(),
		"from", from,
		"to", b.Status())

	o.publish(ctx, event)
	return b, nil
}

func (o *bookingOrchestrator) load(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := o.bookings.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrBookingNotFound)
		}
		return nil, errs.Mark(errs.Wrap(err, "failed to find booking"), ErrDatabaseOperationFailed)
	}
	return b, nil
}

func (o *bookingOrchestrator) mapSaveErr(err error) error {
	switch {
	// 23P01 from the exclusion constraint, 23505 from a unique slot index
	case infra.IsKind(err, infra.KindConflict), infra.IsKind(err, infra.KindDuplicateKey):
		return &PeriodOverlapError{Err: err}
	case infra.IsKind(err, infra.KindStaleVersion):
		return errs.Mark(err, ErrConcurrentModification)
	default:
		return errs.Mark(errs.Wrap(err, "failed to save booking"), ErrDatabaseOperationFailed)
	}
}

// publish is fire-and-forget: the booking is already committed, so a sink failure is only logged.
func (o *bookingOrchestrator) publish(ctx context.Context, events ...domainshared.Event) {
	if len(events) == 0 {
		return
	}
	if err := o.publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		o.logger.Warn("failed to publish booking events",
			"count", len(events),
			"first", events[0].EventName(),
			"error", err)
	}
}
