//go:build unit

package queries_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra/storage/memory"
	"booking-engine/internal/usecase/queries"
	"booking-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seed stores each booking as a persisted row.
func seed(t *testing.T, store *memory.BookingStore, bookings ...*booking.Booking) {
	t.Helper()
	for _, b := range bookings {
		require.NoError(t, store.Save(context.Background(), b))
	}
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBookingStore(discardLogger())
	b := builder.NewBookingBuilder().BuildReconstructed()
	seed(t, store, b)
	q := queries.NewBookingQueries(store)

	view, err := q.GetByID(ctx, b.ID())
	require.NoError(t, err)
	assert.Equal(t, b.ID(), view.ID)
	assert.Equal(t, "PENDING", view.Status)
	assert.Equal(t, int64(1), view.Version)

	_, err = q.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, queries.ErrBookingNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBookingStore(discardLogger())
	item := uuid.New()
	early := builder.NewBookingBuilder().WithResourceItem(item).WithHours(10, 1).BuildReconstructed()
	late := builder.NewBookingBuilder().WithResourceItem(item).WithHours(20, 1).BuildReconstructed()
	cancelled := builder.NewBookingBuilder().WithResourceItem(item).WithHours(10, 1).WithStatus(booking.StatusCancelled).BuildReconstructed()
	other := builder.NewBookingBuilder().WithHours(10, 1).BuildReconstructed()
	seed(t, store, early, late, cancelled, other)
	q := queries.NewBookingQueries(store)

	t.Run("filters by item and status", func(t *testing.T) {
		page, err := q.List(ctx, queries.BookingFilter{ResourceItemID: &item, Statuses: []booking.Status{booking.StatusPending}})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, early.ID(), page.Items[0].ID, "ordered by start")
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, queries.DefaultListLimit, page.Limit)
	})

	t.Run("time window overlaps", func(t *testing.T) {
		from := builder.BaseTime.Add(15 * time.Hour)
		page, err := q.List(ctx, queries.BookingFilter{ResourceItemID: &item, From: &from})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, late.ID(), page.Items[0].ID)
	})

	t.Run("paging keeps the total", func(t *testing.T) {
		page, err := q.List(ctx, queries.BookingFilter{Limit: 1, Offset: 1, ResourceItemID: &item})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, 3, page.Total)

		page, err = q.List(ctx, queries.BookingFilter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 4, page.Total)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		page, err := q.List(ctx, queries.BookingFilter{Limit: 1000, Offset: -3})
		require.NoError(t, err)
		assert.Equal(t, queries.MaxListLimit, page.Limit)
		assert.Equal(t, 0, page.Offset)
	})
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBookingStore(discardLogger())
	item := uuid.New()
	existing := builder.NewBookingBuilder().WithResourceItem(item).WithHours(10, 2).WithStatus(booking.StatusConfirmed).BuildReconstructed()
	seed(t, store, existing)
	q := queries.NewBookingQueries(store)

	at := func(h int) time.Time { return builder.BaseTime.Add(time.Duration(h) * time.Hour) }

	t.Run("conflict", func(t *testing.T) {
		view, err := q.CheckAvailability(ctx, item, at(11), at(13), nil)
		require.NoError(t, err)
		assert.False(t, view.IsAvailable)
		assert.Equal(t, []uuid.UUID{existing.ID()}, view.ConflictingBookings)
		assert.Empty(t, view.AvailableSlots)
	})

	t.Run("adjacent is free", func(t *testing.T) {
		view, err := q.CheckAvailability(ctx, item, at(12), at(13), nil)
		require.NoError(t, err)
		assert.True(t, view.IsAvailable)
		require.Len(t, view.AvailableSlots, 1)
		assert.True(t, view.AvailableSlots[0].StartAt.Equal(at(12)))
	})

	t.Run("excluding the booking itself", func(t *testing.T) {
		id := existing.ID()
		view, err := q.CheckAvailability(ctx, item, at(10), at(12), &id)
		require.NoError(t, err)
		assert.True(t, view.IsAvailable)
	})

	t.Run("past periods can be inspected", func(t *testing.T) {
		view, err := q.CheckAvailability(ctx, item, at(-48), at(-47), nil)
		require.NoError(t, err)
		assert.True(t, view.IsAvailable)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := q.CheckAvailability(ctx, item, at(12), at(12), nil)
		assert.ErrorIs(t, err, queries.ErrInvalidPeriod)
	})
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()

	t.Run("every status is present even when empty", func(t *testing.T) {
		q := queries.NewBookingQueries(memory.NewBookingStore(discardLogger()))
		stats, err := q.Statistics(ctx, queries.BookingFilter{})
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
		assert.Len(t, stats.ByStatus, len(booking.AllStatuses()))
		for _, s := range booking.AllStatuses() {
			assert.Zero(t, stats.ByStatus[s.String()])
		}
		assert.NotNil(t, stats.Revenue)
		assert.Empty(t, stats.Revenue)
	})

	t.Run("revenue counts confirmed and completed per currency", func(t *testing.T) {
		store := memory.NewBookingStore(discardLogger())
		confirmed := builder.NewBookingBuilder().WithStatus(booking.StatusConfirmed).With(func(b *builder.BookingBuilder) {
			b.Commission = decimal.NewFromInt(20)
		}).BuildReconstructed()
		completed := builder.NewBookingBuilder().WithStatus(booking.StatusCompleted).BuildReconstructed()
		euro := builder.NewBookingBuilder().WithStatus(booking.StatusConfirmed).With(func(b *builder.BookingBuilder) {
			b.Currency = "EUR"
		}).BuildReconstructed()
		pending := builder.NewBookingBuilder().BuildReconstructed()
		seed(t, store, confirmed, completed, euro, pending)

		stats, err := queries.NewBookingQueries(store).Statistics(ctx, queries.BookingFilter{})
		require.NoError(t, err)

		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, 2, stats.ByStatus["CONFIRMED"])
		assert.Equal(t, 1, stats.ByStatus["PENDING"])
		assert.Equal(t, 0, stats.ByStatus["EXPIRED"])

		require.Len(t, stats.Revenue, 2)
		assert.Equal(t, "EUR", stats.Revenue[0].Currency)
		assert.True(t, decimal.NewFromInt(200).Equal(stats.Revenue[0].Total))
		usd := stats.Revenue[1]
		assert.Equal(t, "USD", usd.Currency)
		assert.True(t, decimal.NewFromInt(400).Equal(usd.Base))
		assert.True(t, decimal.NewFromInt(20).Equal(usd.Commission))
		assert.True(t, decimal.NewFromInt(420).Equal(usd.Total))
	})
}
