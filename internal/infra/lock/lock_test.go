//go:build unit

package lock_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"booking-engine/internal/infra/lock"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("second acquire fails until release", func(t *testing.T) {
		p := lock.NewMemoryProvider(clock.NewMockClock(start))

		ok, err := p.TryAcquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = p.TryAcquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, p.Release(ctx, "k"))
		assert.False(t, p.Held("k"))

		ok, err = p.TryAcquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired lock can be taken over", func(t *testing.T) {
		c := clock.NewMockClock(start)
		p := lock.NewMemoryProvider(c)

		ok, _ := p.TryAcquire(ctx, "k", time.Second)
		require.True(t, ok)

		c.Add(time.Second)
		assert.False(t, p.Held("k"))

		ok, err := p.TryAcquire(ctx, "k", time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("extend", func(t *testing.T) {
		c := clock.NewMockClock(start)
		p := lock.NewMemoryProvider(c)

		ok, _ := p.TryAcquire(ctx, "k", time.Second)
		require.True(t, ok)

		c.Add(500 * time.Millisecond)
		ok, err := p.Extend(ctx, "k", time.Second)
		require.NoError(t, err)
		assert.True(t, ok)

		c.Add(900 * time.Millisecond)
		assert.True(t, p.Held("k"))

		c.Add(200 * time.Millisecond)
		ok, err = p.Extend(ctx, "k", time.Second)
		require.NoError(t, err)
		assert.False(t, ok, "an expired lock is not extended")
	})

	t.Run("keys are independent", func(t *testing.T) {
		p := lock.NewMemoryProvider(clock.NewMockClock(start))

		ok, _ := p.TryAcquire(ctx, "a", time.Minute)
		require.True(t, ok)
		ok, err := p.TryAcquire(ctx, "b", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRedisProviderBreaker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// nothing listens on port 1; every call fails at dial
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	p := lock.NewRedisProvider(client, config.LockConfig{
		BreakerFailureThreshold: 2,
		BreakerOpenTimeout:      time.Minute,
	}, logger)
	ctx := context.Background()

	assert.Equal(t, "closed", p.State())

	for range 2 {
		ok, err := p.TryAcquire(ctx, "k", time.Second)
		require.Error(t, err)
		assert.False(t, ok)
		assert.False(t, errs.Is(err, lock.ErrProviderUnavailable), "dial errors pass through while closed")
	}
	assert.Equal(t, "open", p.State())

	ok, err := p.TryAcquire(ctx, "k", time.Second)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errs.Is(err, lock.ErrProviderUnavailable))

	err = p.Release(ctx, "k")
	assert.True(t, errs.Is(err, lock.ErrProviderUnavailable))
}
