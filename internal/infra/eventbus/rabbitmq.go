package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"booking-engine/internal/domain/shared"
	"booking-engine/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes events to a durable topic exchange, routed by event name.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

func NewRabbitMQPublisher(url, exchange string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errs.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errs.Wrap(err, "failed to open channel")
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errs.Wrapf(err, "failed to declare exchange %s", exchange)
	}

	logger.Info("RabbitMQ publisher connected", "exchange", exchange)

	p := NewRabbitMQPublisherWithChannel(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

// NewRabbitMQPublisherWithChannel publishes on an already declared exchange; Close only closes the channel.
func NewRabbitMQPublisherWithChannel(ch amqpChannel, exchange string, logger *slog.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, events ...shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range events {
		env := NewEnvelope(e)
		body, err := env.Marshal()
		if err != nil {
			return errs.Wrapf(err, "failed to marshal %s", env.Name)
		}

		err = p.channel.PublishWithContext(ctx,
			p.exchange, // exchange
			env.Name,   // routing key
			false,      // mandatory
			false,      // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    env.ID.String(),
				Timestamp:    time.Now(),
				Type:         env.Name,
				Body:         body,
			},
		)
		if err != nil {
			p.logger.Error("failed to publish event",
				"routing_key", env.Name,
				"aggregate_id", env.AggregateID,
				"error", err,
			)
			return errs.Wrapf(err, "failed to publish %s", env.Name)
		}

		p.logger.Debug("event published",
			"routing_key", env.Name,
			"size", len(body),
		)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing channel", "error", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
	}

	p.logger.Info("RabbitMQ publisher closed")
	return nil
}
