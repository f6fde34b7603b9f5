package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"booking-engine/internal/domain/commission"
	domainshared "booking-engine/internal/domain/shared"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

type CommissionCommands interface {
	CreateStrategy(ctx context.Context, params commission.Params) (*commission.Strategy, error)
	UpdateStrategy(ctx context.Context, id uuid.UUID, params commission.Params) (*commission.Strategy, error)
	ActivateStrategy(ctx context.Context, id uuid.UUID) (*commission.Strategy, error)
	DeactivateStrategy(ctx context.Context, id uuid.UUID) (*commission.Strategy, error)
}

type commissionUseCaseImpl struct {
	strategies StrategyRepository
	publisher  EventPublisher
	clock      clock.Clock
	logger     *slog.Logger
}

func NewCommissionUseCase(
	strategies StrategyRepository,
	publisher EventPublisher,
	clock clock.Clock,
	logger *slog.Logger,
) CommissionCommands {
	return &commissionUseCaseImpl{
		strategies: strategies,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
	}
}

func (c *commissionUseCaseImpl) CreateStrategy(ctx context.Context, params commission.Params) (*commission.Strategy, error) {
	if err := c.ensureNameAvailable(ctx, params.Name, uuid.Nil); err != nil {
		return nil, err
	}

	s, event, err := commission.New(uuid.New(), params, c.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidStrategy)
	}
	if err := c.save(ctx, s); err != nil {
		return nil, err
	}

	c.logger.Info("commission strategy created", "strategy_id", s.ID(), "name", s.Name())
	c.publish(ctx, event)
	return s, nil
}

func (c *commissionUseCaseImpl) UpdateStrategy(ctx context.Context, id uuid.UUID, params commission.Params) (*commission.Strategy, error) {
	s, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.ensureNameAvailable(ctx, params.Name, id); err != nil {
		return nil, err
	}

	event, err := s.Update(params, c.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidStrategy)
	}
	if err := c.save(ctx, s); err != nil {
		return nil, err
	}

	c.publish(ctx, event)
	return s, nil
}

func (c *commissionUseCaseImpl) ActivateStrategy(ctx context.Context, id uuid.UUID) (*commission.Strategy, error) {
	return c.toggle(ctx, id, (*commission.Strategy).Activate)
}

func (c *commissionUseCaseImpl) DeactivateStrategy(ctx context.Context, id uuid.UUID) (*commission.Strategy, error) {
	return c.toggle(ctx, id, (*commission.Strategy).Deactivate)
}

func (c *commissionUseCaseImpl) toggle(
	ctx context.Context,
	id uuid.UUID,
	apply func(s *commission.Strategy, now time.Time) (domainshared.Event, error),
) (*commission.Strategy, error) {
	s, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := apply(s, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx, s); err != nil {
		return nil, err
	}

	c.logger.Info("commission strategy toggled", "strategy_id", s.ID(), "active", s.IsActive())
	c.publish(ctx, event)
	return s, nil
}

func (c *commissionUseCaseImpl) ensureNameAvailable(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := c.strategies.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return errs.Mark(errs.Wrap(err, "failed to look up strategy name"), ErrDatabaseOperationFailed)
	}
	if existing.ID() != self {
		return errs.Wrapf(ErrStrategyNameConflict, "name %q", existing.Name())
	}
	return nil
}

func (c *commissionUseCaseImpl) load(ctx context.Context, id uuid.UUID) (*commission.Strategy, error) {
	s, err := c.strategies.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrStrategyNotFound)
		}
		return nil, errs.Mark(errs.Wrap(err, "failed to find strategy"), ErrDatabaseOperationFailed)
	}
	return s, nil
}

func (c *commissionUseCaseImpl) save(ctx context.Context, s *commission.Strategy) error {
	if err := c.strategies.Save(ctx, s); err != nil {
		// unique index on name catches a concurrent create that passed ensureNameAvailable
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return errs.Mark(err, ErrStrategyNameConflict)
		}
		return errs.Mark(errs.Wrap(err, "failed to save strategy"), ErrDatabaseOperationFailed)
	}
	return nil
}

func (c *commissionUseCaseImpl) publish(ctx context.Context, event domainshared.Event) {
	if err := c.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Warn("failed to publish strategy event", "event", event.EventName(), "error", err)
	}
}
