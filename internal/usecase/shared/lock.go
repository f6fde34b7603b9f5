package shared

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

const lockKeyPrefix = "booking-lock"

var (
	// ErrLockUnavailable is transient; callers may resubmit.
	ErrLockUnavailable = errs.New("booking lock unavailable")
	ErrLockNotHeld     = errs.New("booking lock is no longer held")
)

type LockScope string

const (
	LockScopeInterval LockScope = "interval"
	LockScopeResource LockScope = "resource"
)

type LockProvider interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Extend(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type LockOptions struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Scope      LockScope
}

func LockOptionsFromConfig(cfg config.LockConfig) LockOptions {
	return LockOptions{
		TTL:        cfg.TTL,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Scope:      LockScope(cfg.Scope),
	}
}

type DistributedLock struct {
	provider LockProvider
	opts     LockOptions
	logger   *slog.Logger
}

func NewDistributedLock(provider LockProvider, opts LockOptions, logger *slog.Logger) *DistributedLock {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Scope == "" {
		opts.Scope = LockScopeInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DistributedLock{provider: provider, opts: opts, logger: logger}
}

// Key names the critical section for a creation attempt. Interval scope serializes only
// identical intervals; resource scope serializes every creation on the resource item.
func (l *DistributedLock) Key(resourceItemID uuid.UUID, period booking.Period) string {
	if l.opts.Scope == LockScopeResource {
		return fmt.Sprintf("%s:%s", lockKeyPrefix, resourceItemID)
	}
	return fmt.Sprintf("%s:%s:%s:%s", lockKeyPrefix, resourceItemID,
		period.Start().Format(time.RFC3339), period.End().Format(time.RFC3339))
}

func (l *DistributedLock) TTL() time.Duration {
	return l.opts.TTL
}

// Acquire tries once and then up to MaxRetries more times with a fixed delay.
func (l *DistributedLock) Acquire(ctx context.Context, key string) (*LockHandle, error) {
	var lastErr error

	for attempt := 0; attempt <= l.opts.MaxRetries; attempt++ {
		ok, err := l.provider.TryAcquire(ctx, key, l.opts.TTL)
		if err == nil && ok {
			return &LockHandle{lock: l, key: key}, nil
		}
		if err != nil {
			lastErr = err
			l.logger.Warn("lock provider error",
				"key", key,
				"attempt", attempt+1,
				"error", err)
		}

		if attempt == l.opts.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errs.Mark(errs.Wrap(ctx.Err(), "waiting for booking lock"), ErrLockUnavailable)
		case <-time.After(l.opts.RetryDelay):
		}
	}

	l.logger.Info("booking lock unavailable",
		"key", key,
		"attempts", l.opts.MaxRetries+1)
	if lastErr != nil {
		return nil, errs.Mark(errs.Wrapf(lastErr, "acquire %s", key), ErrLockUnavailable)
	}
	return nil, errs.Wrapf(ErrLockUnavailable, "acquire %s after %d attempts", key, l.opts.MaxRetries+1)
}

// WithLock runs fn while holding key and releases it on every exit path.
func (l *DistributedLock) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	handle, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		// release even when the request context is already cancelled
		if relErr := handle.Release(context.WithoutCancel(ctx)); relErr != nil {
			l.logger.Warn("failed to release booking lock", "key", key, "error", relErr)
		}
	}()

	return fn(ctx)
}

type LockHandle struct {
	lock     *DistributedLock
	key      string
	mu       sync.Mutex
	released bool
}

func (h *LockHandle) Key() string {
	return h.key
}

// Extend refreshes the TTL for long-running work.
func (h *LockHandle) Extend(ctx context.Context, ttl time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrLockNotHeld
	}
	if ttl <= 0 {
		ttl = h.lock.opts.TTL
	}
	ok, err := h.lock.provider.Extend(ctx, h.key, ttl)
	if err != nil {
		return errs.Wrapf(err, "extend %s", h.key)
	}
	if !ok {
		return ErrLockNotHeld
	}
	return nil
}

// Release deletes the key unconditionally; the TTL covers a release that never happens.
func (h *LockHandle) Release(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	if err := h.lock.provider.Release(ctx, h.key); err != nil {
		return errs.Wrapf(err, "release %s", h.key)
	}
	return nil
}
