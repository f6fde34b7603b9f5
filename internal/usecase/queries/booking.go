package queries

import (
	"context"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errs.New("booking not found")
	ErrInvalidPeriod   = errs.New("invalid period")
)

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	List(ctx context.Context, filter BookingFilter) (*BookingPage, error)
	CheckAvailability(ctx context.Context, resourceItemID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*AvailabilityView, error)
	Statistics(ctx context.Context, filter BookingFilter) (*BookingStatistics, error)
}

type BookingReadStore interface {
	booking.ConflictFinder
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]*booking.Booking, int, error)
	Statistics(ctx context.Context, filter BookingFilter) (*BookingStatistics, error)
}

type bookingQueriesImpl struct {
	readStore BookingReadStore
	checker   *booking.AvailabilityChecker
}

func NewBookingQueries(readStore BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{
		readStore: readStore,
		checker:   booking.NewAvailabilityChecker(readStore),
	}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	b, err := q.readStore.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return NewBookingView(b), nil
}

func (q *bookingQueriesImpl) List(ctx context.Context, filter BookingFilter) (*BookingPage, error) {
	filter.Limit = ValidateLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, total, err := q.readStore.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*BookingView, 0, len(rows))
	for _, b := range rows {
		items = append(items, NewBookingView(b))
	}
	return &BookingPage{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// CheckAvailability accepts past periods so callers can inspect history.
func (q *bookingQueriesImpl) CheckAvailability(
	ctx context.Context,
	resourceItemID uuid.UUID,
	start, end time.Time,
	excludeID *uuid.UUID,
) (*AvailabilityView, error) {
	if !start.Before(end) {
		return nil, errs.Wrapf(ErrInvalidPeriod, "start %s must be before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	period := booking.ReconstructPeriod(start, end)

	availability, err := q.checker.Check(ctx, resourceItemID, period, excludeID)
	if err != nil {
		return nil, err
	}

	view := &AvailabilityView{
		ResourceItemID:      resourceItemID,
		StartAt:             period.Start(),
		EndAt:               period.End(),
		IsAvailable:         availability.IsAvailable,
		ConflictingBookings: availability.ConflictingIDs(),
		AvailableSlots:      make([]SlotView, 0, len(availability.AvailableSlots)),
	}
	for _, slot := range availability.AvailableSlots {
		view.AvailableSlots = append(view.AvailableSlots, SlotView{StartAt: slot.Start(), EndAt: slot.End()})
	}
	return view, nil
}

func (q *bookingQueriesImpl) Statistics(ctx context.Context, filter BookingFilter) (*BookingStatistics, error) {
	stats, err := q.readStore.Statistics(ctx, filter)
	if err != nil {
		return nil, err
	}
	if stats.ByStatus == nil {
		stats.ByStatus = make(map[string]int)
	}
	// every status is present so clients need no zero-value handling
	for _, s := range booking.AllStatuses() {
		if _, ok := stats.ByStatus[s.String()]; !ok {
			stats.ByStatus[s.String()] = 0
		}
	}
	if stats.Revenue == nil {
		stats.Revenue = []RevenueView{}
	}
	return stats, nil
}
