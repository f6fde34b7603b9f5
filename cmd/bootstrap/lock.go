package bootstrap

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra/lock"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var LockModule = fx.Module("lock",
	fx.Provide(
		NewRedis,
		NewLockProvider,
		NewDistributedLock,
	),
)

// NewRedis returns a nil client for the in-memory lock driver.
func NewRedis(lc fx.Lifecycle, cfg config.Config) (*redis.Client, error) {
	if cfg.Lock.UsesMemory() {
		return nil, nil
	}

	client := lock.NewRedisClient(cfg.Redis)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return errs.Wrapf(err, "failed to reach redis at %s", cfg.Redis.Addr)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func NewLockProvider(cfg config.Config, client *redis.Client, c clock.Clock, logger *slog.Logger) shared.LockProvider {
	if cfg.Lock.UsesMemory() {
		logger.Warn("lock driver is memory; locks are not shared across processes")
		return lock.NewMemoryProvider(c)
	}
	return lock.NewRedisProvider(client, cfg.Lock, logger)
}

func NewDistributedLock(provider shared.LockProvider, cfg config.LockConfig, logger *slog.Logger) *shared.DistributedLock {
	return shared.NewDistributedLock(provider, shared.LockOptionsFromConfig(cfg), logger)
}
