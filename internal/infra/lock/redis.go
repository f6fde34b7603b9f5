package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

var ErrProviderUnavailable = errs.New("lock provider unavailable")

// RedisProvider implements set-if-absent locking on a single Redis node. Every call goes
// through a circuit breaker so an unreachable Redis fails fast instead of stalling retries.
type RedisProvider struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[bool]
	owner   string
	logger  *slog.Logger
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisProvider(client *redis.Client, cfg config.LockConfig, logger *slog.Logger) *RedisProvider {
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "redis-lock",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &RedisProvider{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[bool](settings),
		owner:   uuid.NewString(),
		logger:  logger,
	}
}

func (p *RedisProvider) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return p.execute(func() (bool, error) {
		return p.client.SetNX(ctx, key, p.owner, ttl).Result()
	})
}

// Release deletes the key whoever holds it; the TTL bounds a leaked lock.
func (p *RedisProvider) Release(ctx context.Context, key string) error {
	_, err := p.execute(func() (bool, error) {
		err := p.client.Del(ctx, key).Err()
		return err == nil, err
	})
	return err
}

func (p *RedisProvider) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return p.execute(func() (bool, error) {
		return p.client.PExpire(ctx, key, ttl).Result()
	})
}

func (p *RedisProvider) State() string {
	return p.breaker.State().String()
}

func (p *RedisProvider) execute(fn func() (bool, error)) (bool, error) {
	ok, err := p.breaker.Execute(func() (bool, error) {
		ok, err := fn()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return ok, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false, errs.Mark(err, ErrProviderUnavailable)
	}
	return ok, err
}
