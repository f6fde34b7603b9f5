//go:build unit

package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFinder struct {
	bookings []*booking.Booking
	err      error
}

// over-selects on purpose: the checker must do the precise filtering
func (f stubFinder) FindConflicting(_ context.Context, _ uuid.UUID, _ booking.Period, _ *uuid.UUID) ([]*booking.Booking, error) {
	return f.bookings, f.err
}

func TestAvailabilityChecker(t *testing.T) {
	ctx := context.Background()
	item := uuid.New()
	requested := booking.ReconstructPeriod(builder.BaseTime.Add(10*time.Hour), builder.BaseTime.Add(12*time.Hour))

	existing := func(offset, length int, status booking.Status) *booking.Booking {
		return builder.NewBookingBuilder().WithResourceItem(item).WithHours(offset, length).WithStatus(status).BuildReconstructed()
	}

	overlapping := existing(11, 2, booking.StatusConfirmed)
	adjacent := existing(12, 1, booking.StatusPending)
	cancelled := existing(10, 2, booking.StatusCancelled)
	otherItem := builder.NewBookingBuilder().WithHours(10, 2).BuildReconstructed()

	t.Run("free when only adjacent, inactive or foreign bookings exist", func(t *testing.T) {
		checker := booking.NewAvailabilityChecker(stubFinder{bookings: []*booking.Booking{adjacent, cancelled, otherItem}})

		a, err := checker.Check(ctx, item, requested, nil)
		require.NoError(t, err)
		assert.True(t, a.IsAvailable)
		assert.Empty(t, a.ConflictingIDs())
		require.Len(t, a.AvailableSlots, 1)
		assert.True(t, a.AvailableSlots[0].Equals(requested))
	})

	t.Run("reports the overlapping active booking", func(t *testing.T) {
		checker := booking.NewAvailabilityChecker(stubFinder{bookings: []*booking.Booking{overlapping, adjacent}})

		a, err := checker.Check(ctx, item, requested, nil)
		require.NoError(t, err)
		assert.False(t, a.IsAvailable)
		assert.Equal(t, []uuid.UUID{overlapping.ID()}, a.ConflictingIDs())
		assert.Empty(t, a.AvailableSlots)
	})

	t.Run("excluded booking is ignored", func(t *testing.T) {
		checker := booking.NewAvailabilityChecker(stubFinder{bookings: []*booking.Booking{overlapping}})
		exclude := overlapping.ID()

		conflict, err := checker.HasConflict(ctx, item, requested, &exclude)
		require.NoError(t, err)
		assert.False(t, conflict)
	})

	t.Run("finder error is returned", func(t *testing.T) {
		boom := errors.New("boom")
		checker := booking.NewAvailabilityChecker(stubFinder{err: boom})

		_, err := checker.Check(ctx, item, requested, nil)
		assert.ErrorIs(t, err, boom)
	})
}
