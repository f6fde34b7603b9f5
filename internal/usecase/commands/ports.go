package commands

import (
	"context"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/commission"
	"booking-engine/internal/domain/shared"

	"github.com/google/uuid"
)

// BookingRepository is the write-side store. Save inserts when the booking has never been
// persisted and otherwise updates only if the stored version still matches; overlap
// violations surface as infra.KindConflict and lost races as infra.KindStaleVersion.
type BookingRepository interface {
	Save(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	FindConflicting(ctx context.Context, resourceItemID uuid.UUID, period booking.Period, excludeID *uuid.UUID) ([]*booking.Booking, error)
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*booking.Booking, error)
}

type StrategyRepository interface {
	Save(ctx context.Context, s *commission.Strategy) error
	FindByID(ctx context.Context, id uuid.UUID) (*commission.Strategy, error)
	FindByName(ctx context.Context, name string) (*commission.Strategy, error)
	FindActive(ctx context.Context) ([]*commission.Strategy, error)
	FindAll(ctx context.Context) ([]*commission.Strategy, error)
}

// EventPublisher delivers domain events after the aggregate is persisted.
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.Event) error
}
