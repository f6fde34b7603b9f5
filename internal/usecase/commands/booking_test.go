//go:build unit

package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/commission"
	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/eventbus"
	"booking-engine/internal/infra/lock"
	"booking-engine/internal/infra/storage/memory"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cmds       commands.BookingCommands
	bookings   *memory.BookingStore
	strategies *memory.StrategyStore
	locks      *lock.MemoryProvider
	lock       *shared.DistributedLock
	events     *eventbus.Recorder
	clock      *clock.MockClock
	cfg        config.BookingConfig
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := discardLogger()
	f := &fixture{
		bookings:   memory.NewBookingStore(logger),
		strategies: memory.NewStrategyStore(logger),
		events:     eventbus.NewRecorder(),
		clock:      clock.NewMockClock(builder.BaseTime),
		cfg:        config.BookingConfig{PaymentWindow: 10 * time.Minute, DefaultCurrency: "USD"},
	}
	f.locks = lock.NewMemoryProvider(f.clock)
	f.lock = shared.NewDistributedLock(f.locks, shared.LockOptions{
		TTL:        30 * time.Second,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}, logger)
	f.cmds = f.build(f.bookings)
	return f
}

func (f *fixture) build(repo commands.BookingRepository) commands.BookingCommands {
	return commands.NewBookingUseCase(
		repo,
		f.strategies,
		f.lock,
		pricing.NewResolver(),
		f.events,
		f.clock,
		f.cfg,
		discardLogger(),
	)
}

func (f *fixture) addStrategy(t *testing.T, mutate func(*builder.StrategyBuilder)) *commission.Strategy {
	t.Helper()
	b := builder.NewStrategyBuilder()
	if mutate != nil {
		mutate(b)
	}
	s := b.MustBuild()
	require.NoError(t, f.strategies.Save(context.Background(), s))
	return s
}

func (f *fixture) create(t *testing.T, mutate func(*builder.BookingBuilder)) *booking.Booking {
	t.Helper()
	b := builder.NewBookingBuilder()
	if mutate != nil {
		mutate(b)
	}
	created, err := f.cmds.Create(context.Background(), b.BuildCreateParams())
	require.NoError(t, err)
	return created
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("prices with the best strategy and publishes", func(t *testing.T) {
		f := newFixture(t)
		strategy := f.addStrategy(t, nil)

		created := f.create(t, nil)

		assert.Equal(t, booking.StatusPending, created.Status())
		assert.Equal(t, int64(1), created.Version())
		assert.True(t, decimal.NewFromInt(200).Equal(created.Price().Base()))
		assert.True(t, decimal.NewFromInt(20).Equal(created.Price().Commission()))
		assert.True(t, decimal.NewFromInt(220).Equal(created.Price().Total()))
		assert.Equal(t, strategy.ID(), created.Price().AppliedCommission().StrategyID)
		assert.True(t, created.PaymentDeadline().Equal(builder.BaseTime.Add(10*time.Minute)))
		assert.Equal(t, []string{booking.EventCreated}, f.events.Names())

		stored, err := f.bookings.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.True(t, stored.Price().Equals(created.Price()))
	})

	t.Run("explicit duration overrides the period for pricing", func(t *testing.T) {
		f := newFixture(t)
		params := builder.NewBookingBuilder().BuildCreateParams()
		params.DurationHours = 3

		created, err := f.cmds.Create(ctx, params)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(300).Equal(created.Price().Total()))
	})

	t.Run("default currency fills a blank one", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, func(b *builder.BookingBuilder) { b.Currency = "" })
		assert.Equal(t, "USD", created.Price().Currency())
	})

	t.Run("overlap reports the conflicting booking", func(t *testing.T) {
		f := newFixture(t)
		item := uuid.New()
		first := f.create(t, func(b *builder.BookingBuilder) { b.WithResourceItem(item).WithHours(10, 2) })

		params := builder.NewBookingBuilder().WithResourceItem(item).WithHours(11, 2).BuildCreateParams()
		_, err := f.cmds.Create(ctx, params)

		require.Error(t, err)
		assert.ErrorIs(t, err, commands.ErrPeriodOverlap)
		var overlap *commands.PeriodOverlapError
		require.ErrorAs(t, err, &overlap)
		assert.Equal(t, []uuid.UUID{first.ID()}, overlap.ConflictingIDs)
		assert.Len(t, f.events.Events(), 1, "rejected create publishes nothing")
	})

	t.Run("adjacent and other resources do not conflict", func(t *testing.T) {
		f := newFixture(t)
		item := uuid.New()
		f.create(t, func(b *builder.BookingBuilder) { b.WithResourceItem(item).WithHours(10, 2) })
		f.create(t, func(b *builder.BookingBuilder) { b.WithResourceItem(item).WithHours(12, 1) })
		f.create(t, func(b *builder.BookingBuilder) { b.WithHours(10, 2) })
	})

	t.Run("cancelled bookings free their slot", func(t *testing.T) {
		f := newFixture(t)
		item := uuid.New()
		first := f.create(t, func(b *builder.BookingBuilder) { b.WithResourceItem(item).WithHours(10, 2) })
		_, err := f.cmds.Cancel(ctx, first.ID(), "")
		require.NoError(t, err)

		f.create(t, func(b *builder.BookingBuilder) { b.WithResourceItem(item).WithHours(10, 2) })
	})

	t.Run("start in the past", func(t *testing.T) {
		f := newFixture(t)
		params := builder.NewBookingBuilder().WithHours(-1, 2).BuildCreateParams()

		_, err := f.cmds.Create(ctx, params)
		assert.True(t, errs.Is(err, commands.ErrInvalidPeriod))
		assert.True(t, errs.Is(err, booking.ErrPeriodInPast))
	})

	t.Run("end before start", func(t *testing.T) {
		f := newFixture(t)
		b := builder.NewBookingBuilder()
		params := b.WithPeriod(b.EndAt, b.StartAt).BuildCreateParams()

		_, err := f.cmds.Create(ctx, params)
		assert.True(t, errs.Is(err, commands.ErrInvalidPeriod))
	})

	t.Run("missing user", func(t *testing.T) {
		f := newFixture(t)
		params := builder.NewBookingBuilder().BuildCreateParams()
		params.UserID = uuid.Nil

		_, err := f.cmds.Create(ctx, params)
		assert.True(t, errs.Is(err, commands.ErrInvalidBooking))
	})

	t.Run("negative base price", func(t *testing.T) {
		f := newFixture(t)
		params := builder.NewBookingBuilder().BuildCreateParams()
		params.BasePrice = decimal.NewFromInt(-5)

		_, err := f.cmds.Create(ctx, params)
		assert.True(t, errs.Is(err, commands.ErrInvalidPrice))
	})

	t.Run("held lock makes the slot unavailable", func(t *testing.T) {
		f := newFixture(t)
		b := builder.NewBookingBuilder()
		period, err := b.BuildPeriod()
		require.NoError(t, err)
		handle, err := f.lock.Acquire(ctx, f.lock.Key(b.ResourceItemID, period))
		require.NoError(t, err)
		defer func() { _ = handle.Release(ctx) }()

		_, err = f.cmds.Create(ctx, b.BuildCreateParams())
		assert.True(t, errs.Is(err, commands.ErrLockUnavailable))
		assert.Empty(t, f.events.Events())
	})

	t.Run("lock is released after the create", func(t *testing.T) {
		f := newFixture(t)
		b := builder.NewBookingBuilder()
		period, err := b.BuildPeriod()
		require.NoError(t, err)

		_, err = f.cmds.Create(ctx, b.BuildCreateParams())
		require.NoError(t, err)
		assert.False(t, f.locks.Held(f.lock.Key(b.ResourceItemID, period)))
	})

	t.Run("publisher failure does not fail the create", func(t *testing.T) {
		f := newFixture(t)
		f.events.FailWith(errors.New("broker down"))

		created := f.create(t, nil)
		_, err := f.bookings.FindByID(ctx, created.ID())
		assert.NoError(t, err)
	})
}

func TestCreateConcurrently(t *testing.T) {
	ctx := context.Background()

	t.Run("identical intervals admit exactly one", func(t *testing.T) {
		f := newFixture(t)
		template := builder.NewBookingBuilder()

		const workers = 8
		var wg sync.WaitGroup
		results := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				params := template.BuildCreateParams()
				params.UserID = uuid.New()
				_, results[i] = f.cmds.Create(ctx, params)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t,
				errs.Is(err, commands.ErrPeriodOverlap) || errs.Is(err, commands.ErrLockUnavailable),
				"unexpected error: %v", err)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("partially overlapping intervals admit at most one", func(t *testing.T) {
		f := newFixture(t)
		item := uuid.New()

		var wg sync.WaitGroup
		results := make([]error, 4)
		for i := range 4 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				params := builder.NewBookingBuilder().WithResourceItem(item).WithHours(10+i, 2).BuildCreateParams()
				_, results[i] = f.cmds.Create(ctx, params)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
			}
		}
		assert.GreaterOrEqual(t, succeeded, 1)

		page, _, err := f.bookings.List(ctx, queries.BookingFilter{ResourceItemID: &item})
		require.NoError(t, err)
		assert.Len(t, page, succeeded)
		for i, a := range page {
			for _, b := range page[i+1:] {
				assert.False(t, a.Period().Overlaps(b.Period()), "stored bookings must never overlap")
			}
		}
	})

	t.Run("disjoint intervals all succeed", func(t *testing.T) {
		f := newFixture(t)
		item := uuid.New()

		var wg sync.WaitGroup
		results := make([]error, 6)
		for i := range 6 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				params := builder.NewBookingBuilder().WithResourceItem(item).WithHours(10+2*i, 2).BuildCreateParams()
				_, results[i] = f.cmds.Create(ctx, params)
			}(i)
		}
		wg.Wait()

		for _, err := range results {
			assert.NoError(t, err)
		}
	})
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm then complete", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, nil)

		confirmed, err := f.cmds.Confirm(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, confirmed.Status())
		assert.Equal(t, int64(2), confirmed.Version())

		completed, err := f.cmds.Complete(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, completed.Status())
		assert.Equal(t, []string{booking.EventCreated, booking.EventConfirmed, booking.EventCompleted}, f.events.Names())
	})

	t.Run("cancel twice", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, nil)

		cancelled, err := f.cmds.Cancel(ctx, created.ID(), "plans changed")
		require.NoError(t, err)
		assert.Equal(t, "plans changed", *cancelled.CancellationReason())

		_, err = f.cmds.Cancel(ctx, created.ID(), "again")
		assert.ErrorIs(t, err, commands.ErrIllegalTransition)
		var illegal *booking.IllegalTransitionError
		require.ErrorAs(t, err, &illegal)
		assert.Equal(t, booking.StatusCancelled, illegal.From)

		stored, err := f.bookings.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "plans changed", *stored.CancellationReason(), "rejected cancel leaves storage alone")
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.cmds.Confirm(ctx, uuid.New())
		assert.True(t, errs.Is(err, commands.ErrBookingNotFound))
	})

	t.Run("expire pending", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, nil)

		expired, err := f.cmds.Expire(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, booking.StatusExpired, expired.Status())
	})
}

func TestProcessPayment(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		status   commands.PaymentStatus
		expected booking.Status
		event    string
	}{
		{name: "succeeded confirms", status: commands.PaymentSucceeded, expected: booking.StatusConfirmed, event: booking.EventConfirmed},
		{name: "failed marks payment failed", status: commands.PaymentFailed, expected: booking.StatusPaymentFailed, event: booking.EventPaymentFailed},
		{name: "pending marks payment pending", status: commands.PaymentPending, expected: booking.StatusPaymentPending, event: booking.EventPaymentPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			created := f.create(t, nil)
			if tt.status == commands.PaymentFailed {
				_, err := f.cmds.MarkPaymentPending(ctx, created.ID())
				require.NoError(t, err)
			}

			updated, err := f.cmds.ProcessPayment(ctx, commands.PaymentOutcome{BookingID: created.ID(), Status: tt.status, Reason: "declined"})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, updated.Status())
			names := f.events.Names()
			assert.Equal(t, tt.event, names[len(names)-1])
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, nil)

		_, err := f.cmds.ProcessPayment(ctx, commands.PaymentOutcome{BookingID: created.ID(), Status: "refunded"})
		assert.ErrorIs(t, err, commands.ErrInvalidPaymentStatus)
	})

	t.Run("failure directly from pending is illegal", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, nil)

		_, err := f.cmds.ProcessPayment(ctx, commands.PaymentOutcome{BookingID: created.ID(), Status: commands.PaymentFailed})
		assert.ErrorIs(t, err, commands.ErrIllegalTransition)
	})
}

func TestExpireOverdue(t *testing.T) {
	ctx := context.Background()

	t.Run("expires only overdue unpaid bookings", func(t *testing.T) {
		f := newFixture(t)
		overdue := f.create(t, func(b *builder.BookingBuilder) { b.WithHours(24, 1) })
		paying := f.create(t, func(b *builder.BookingBuilder) { b.WithHours(26, 1) })
		_, err := f.cmds.MarkPaymentPending(ctx, paying.ID())
		require.NoError(t, err)
		confirmed := f.create(t, func(b *builder.BookingBuilder) { b.WithHours(28, 1) })
		_, err = f.cmds.Confirm(ctx, confirmed.ID())
		require.NoError(t, err)

		f.clock.Add(11 * time.Minute)
		fresh := f.create(t, func(b *builder.BookingBuilder) { b.WithHours(30, 1) })

		result, err := f.cmds.ExpireOverdue(ctx)
		require.NoError(t, err)
		assert.Equal(t, commands.SweepResult{Scanned: 2, Expired: 2}, result)

		for id, expected := range map[uuid.UUID]booking.Status{
			overdue.ID():   booking.StatusExpired,
			paying.ID():    booking.StatusExpired,
			confirmed.ID(): booking.StatusConfirmed,
			fresh.ID():     booking.StatusPending,
		} {
			stored, err := f.bookings.FindByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, expected, stored.Status())
		}
	})

	t.Run("deadline itself is not overdue", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, nil)
		f.clock.Add(10 * time.Minute)

		result, err := f.cmds.ExpireOverdue(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Expired)
	})

	t.Run("concurrent sweeps expire each booking once", func(t *testing.T) {
		f := newFixture(t)
		for i := range 5 {
			f.create(t, func(b *builder.BookingBuilder) { b.WithHours(24+i, 1) })
		}
		f.clock.Add(time.Hour)

		var wg sync.WaitGroup
		results := make([]commands.SweepResult, 4)
		for i := range 4 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r, err := f.cmds.ExpireOverdue(ctx)
				assert.NoError(t, err)
				results[i] = r
			}(i)
		}
		wg.Wait()

		expired := 0
		for _, r := range results {
			expired += r.Expired
			assert.Zero(t, r.Failed)
		}
		assert.Equal(t, 5, expired)

		count := 0
		for _, name := range f.events.Names() {
			if name == booking.EventExpired {
				count++
			}
		}
		assert.Equal(t, 5, count, "one expired event per booking")
	})
}

// failingSaveRepo rejects saves of the listed bookings with a database failure.
type failingSaveRepo struct {
	commands.BookingRepository
	failIDs map[uuid.UUID]bool
}

func (r failingSaveRepo) Save(ctx context.Context, b *booking.Booking) error {
	if r.failIDs[b.ID()] {
		return infra.WrapRepoErr(discardLogger(), infra.KindDBFailure, "save rejected", errors.New("connection reset"))
	}
	return r.BookingRepository.Save(ctx, b)
}

func TestExpireOverduePaging(t *testing.T) {
	ctx := context.Background()

	t.Run("expires bookings beyond the first page", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.SweepBatchSize = 2
		f.cmds = f.build(f.bookings)
		for i := range 5 {
			f.create(t, func(b *builder.BookingBuilder) { b.WithHours(24+i, 1) })
		}
		f.clock.Add(time.Hour)

		result, err := f.cmds.ExpireOverdue(ctx)
		require.NoError(t, err)
		assert.Equal(t, commands.SweepResult{Scanned: 5, Expired: 5}, result)

		left, err := f.bookings.FindOverdue(ctx, f.clock.Now(), 0)
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("failed bookings do not crowd out the rest", func(t *testing.T) {
		f := newFixture(t)
		var created []*booking.Booking
		for i := range 5 {
			created = append(created, f.create(t, func(b *builder.BookingBuilder) { b.WithHours(24+i, 1) }))
		}
		f.clock.Add(time.Hour)

		f.cfg.SweepBatchSize = 2
		sweeper := f.build(failingSaveRepo{
			BookingRepository: f.bookings,
			failIDs:           map[uuid.UUID]bool{created[0].ID(): true, created[3].ID(): true},
		})

		result, err := sweeper.ExpireOverdue(ctx)
		require.NoError(t, err)
		assert.Equal(t, commands.SweepResult{Scanned: 5, Expired: 3, Failed: 2}, result)

		for i, b := range created {
			stored, err := f.bookings.FindByID(ctx, b.ID())
			require.NoError(t, err)
			if i == 0 || i == 3 {
				assert.Equal(t, booking.StatusPending, stored.Status())
				continue
			}
			assert.Equal(t, booking.StatusExpired, stored.Status())
		}
	})

	t.Run("cancelled context stops the sweep", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, nil)
		f.clock.Add(time.Hour)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.cmds.ExpireOverdue(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// staleRepo wraps a store and fails the next Save the way a lost optimistic race does.
type staleRepo struct {
	commands.BookingRepository
	kind infra.RepositoryErrorKind
}

func (r staleRepo) Save(context.Context, *booking.Booking) error {
	return infra.WrapRepoErr(discardLogger(), r.kind, "save rejected", nil)
}

func TestSaveErrorMapping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		kind  infra.RepositoryErrorKind
		check func(t *testing.T, err error)
	}{
		{name: "stale version", kind: infra.KindStaleVersion, check: func(t *testing.T, err error) {
			assert.True(t, errs.Is(err, commands.ErrConcurrentModification))
		}},
		{name: "exclusion violation", kind: infra.KindConflict, check: func(t *testing.T, err error) {
			assert.ErrorIs(t, err, commands.ErrPeriodOverlap)
		}},
		{name: "unique violation", kind: infra.KindDuplicateKey, check: func(t *testing.T, err error) {
			assert.ErrorIs(t, err, commands.ErrPeriodOverlap)
			var overlap *commands.PeriodOverlapError
			assert.ErrorAs(t, err, &overlap)
		}},
		{name: "anything else", kind: infra.KindDBFailure, check: func(t *testing.T, err error) {
			assert.True(t, errs.Is(err, commands.ErrDatabaseOperationFailed))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			created := f.create(t, nil)
			cmds := f.build(staleRepo{BookingRepository: f.bookings, kind: tt.kind})

			_, err := cmds.Confirm(ctx, created.ID())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
