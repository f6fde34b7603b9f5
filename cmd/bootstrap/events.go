package bootstrap

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra/eventbus"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"

	"go.uber.org/fx"
)

var EventsModule = fx.Module("events",
	fx.Provide(
		NewEventPublisher,
	),
)

type closingPublisher interface {
	commands.EventPublisher
	Close() error
}

func NewEventPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (commands.EventPublisher, error) {
	var (
		publisher closingPublisher
		err       error
	)
	switch cfg.Events.Sink {
	case "log", "":
		publisher = eventbus.NewLogPublisher(logger)
	case "rabbitmq":
		publisher, err = eventbus.NewRabbitMQPublisher(cfg.Events.RabbitMQURL, cfg.Events.RabbitMQExchange, logger)
	case "kafka":
		publisher, err = eventbus.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, logger)
	default:
		return nil, errs.Newf("unknown EVENT_SINK %q", cfg.Events.Sink)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("event sink configured", "sink", cfg.Events.Sink)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}
