//go:build unit

package memory_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/storage/memory"
	"booking-engine/internal/usecase/queries"
	"booking-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBookingStoreSave(t *testing.T) {
	ctx := context.Background()
	item := uuid.New()

	t.Run("insert bumps version and stores a copy", func(t *testing.T) {
		store := memory.NewBookingStore(discardLogger())
		b := builder.NewBookingBuilder().WithResourceItem(item).BuildReconstructed()

		require.NoError(t, store.Save(ctx, b))
		assert.Equal(t, int64(1), b.Version())

		_, err := b.Cancel("changed locally", builder.BaseTime)
		require.NoError(t, err)

		stored, err := store.FindByID(ctx, b.ID())
		require.NoError(t, err)
		assert.Equal(t, booking.StatusPending, stored.Status())
		assert.Equal(t, int64(1), stored.Version())
	})

	t.Run("stale version", func(t *testing.T) {
		store := memory.NewBookingStore(discardLogger())
		b := builder.NewBookingBuilder().BuildReconstructed()
		require.NoError(t, store.Save(ctx, b))

		first, err := store.FindByID(ctx, b.ID())
		require.NoError(t, err)
		second, err := store.FindByID(ctx, b.ID())
		require.NoError(t, err)

		_, err = first.Confirm(builder.BaseTime)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, first))

		_, err = second.Cancel("late", builder.BaseTime)
		require.NoError(t, err)
		err = store.Save(ctx, second)
		assert.True(t, infra.IsKind(err, infra.KindStaleVersion))
	})

	t.Run("update of a missing booking is stale", func(t *testing.T) {
		store := memory.NewBookingStore(discardLogger())
		b := builder.NewBookingBuilder().WithVersion(3).BuildReconstructed()

		err := store.Save(ctx, b)
		assert.True(t, infra.IsKind(err, infra.KindStaleVersion))
	})

	t.Run("overlapping active booking conflicts", func(t *testing.T) {
		store := memory.NewBookingStore(discardLogger())
		require.NoError(t, store.Save(ctx, builder.NewBookingBuilder().WithResourceItem(item).WithHours(24, 2).BuildReconstructed()))

		err := store.Save(ctx, builder.NewBookingBuilder().WithResourceItem(item).WithHours(25, 2).BuildReconstructed())
		assert.True(t, infra.IsKind(err, infra.KindConflict))
	})

	t.Run("adjacent, inactive and foreign bookings do not conflict", func(t *testing.T) {
		store := memory.NewBookingStore(discardLogger())
		require.NoError(t, store.Save(ctx, builder.NewBookingBuilder().WithResourceItem(item).WithHours(24, 2).BuildReconstructed()))

		assert.NoError(t, store.Save(ctx, builder.NewBookingBuilder().WithResourceItem(item).WithHours(26, 2).BuildReconstructed()))
		assert.NoError(t, store.Save(ctx, builder.NewBookingBuilder().WithResourceItem(uuid.New()).WithHours(24, 2).BuildReconstructed()))
		assert.NoError(t, store.Save(ctx, builder.NewBookingBuilder().
			WithResourceItem(item).WithHours(24, 2).WithStatus(booking.StatusCancelled).BuildReconstructed()))
	})
}

func TestBookingStoreFindByID(t *testing.T) {
	store := memory.NewBookingStore(discardLogger())

	_, err := store.FindByID(context.Background(), uuid.New())
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}

func TestBookingStoreFindConflicting(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBookingStore(discardLogger())
	item := uuid.New()

	later := builder.NewBookingBuilder().WithResourceItem(item).WithHours(27, 2).BuildReconstructed()
	earlier := builder.NewBookingBuilder().WithResourceItem(item).WithHours(24, 2).BuildReconstructed()
	require.NoError(t, store.Save(ctx, later))
	require.NoError(t, store.Save(ctx, earlier))

	window := booking.ReconstructPeriod(builder.BaseTime.Add(25*time.Hour), builder.BaseTime.Add(28*time.Hour))

	found, err := store.FindConflicting(ctx, item, window, nil)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, earlier.ID(), found[0].ID())
	assert.Equal(t, later.ID(), found[1].ID())

	excluded := earlier.ID()
	found, err = store.FindConflicting(ctx, item, window, &excluded)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, later.ID(), found[0].ID())
}

func TestBookingStoreFindOverdue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBookingStore(discardLogger())

	windows := []time.Duration{30 * time.Minute, 10 * time.Minute, 20 * time.Minute}
	for i, w := range windows {
		b := builder.NewBookingBuilder().WithHours(24+3*i, 2).With(func(bb *builder.BookingBuilder) {
			bb.PaymentWindow = w
		}).BuildReconstructed()
		require.NoError(t, store.Save(ctx, b))
	}
	confirmed := builder.NewBookingBuilder().WithHours(40, 2).WithStatus(booking.StatusConfirmed).BuildReconstructed()
	require.NoError(t, store.Save(ctx, confirmed))

	now := builder.BaseTime.Add(time.Hour)

	overdue, err := store.FindOverdue(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, overdue, 3)
	assert.Equal(t, builder.BaseTime.Add(10*time.Minute), *overdue[0].PaymentDeadline())
	assert.Equal(t, builder.BaseTime.Add(20*time.Minute), *overdue[1].PaymentDeadline())
	assert.Equal(t, builder.BaseTime.Add(30*time.Minute), *overdue[2].PaymentDeadline())

	limited, err := store.FindOverdue(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := store.FindOverdue(ctx, builder.BaseTime.Add(5*time.Minute), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBookingStoreList(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBookingStore(discardLogger())
	item := uuid.New()

	var ids []uuid.UUID
	for i := range 5 {
		b := builder.NewBookingBuilder().WithResourceItem(item).WithHours(24+2*i, 1).BuildReconstructed()
		require.NoError(t, store.Save(ctx, b))
		ids = append(ids, b.ID())
	}
	require.NoError(t, store.Save(ctx, builder.NewBookingBuilder().BuildReconstructed()))

	page, total, err := store.List(ctx, queries.BookingFilter{ResourceItemID: &item, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID())
	assert.Equal(t, ids[2], page[1].ID())

	page, total, err = store.List(ctx, queries.BookingFilter{ResourceItemID: &item, Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}
