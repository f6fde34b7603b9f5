package eventbus

import (
	"context"
	"log/slog"

	"booking-engine/internal/domain/shared"
	"booking-engine/internal/pkg/errs"

	"github.com/IBM/sarama"
)

// KafkaPublisher writes events to one topic keyed by aggregate id, so all events of a
// booking land in the same partition in order.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, errs.Wrap(err, "failed to create kafka producer")
	}

	logger.Info("Kafka publisher connected", "topic", topic, "brokers", brokers)
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...shared.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(events))
	for _, e := range events {
		env := NewEnvelope(e)
		body, err := env.Marshal()
		if err != nil {
			return errs.Wrapf(err, "failed to marshal %s", env.Name)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(env.AggregateID.String()),
			Value: sarama.ByteEncoder(body),
			Headers: []sarama.RecordHeader{
				{Key: []byte("event-name"), Value: []byte(env.Name)},
				{Key: []byte("event-id"), Value: []byte(env.ID.String())},
			},
		})
	}

	if err := p.producer.SendMessages(msgs); err != nil {
		p.logger.Error("failed to publish events", "topic", p.topic, "count", len(msgs), "error", err)
		return errs.Wrapf(err, "failed to publish %d events to %s", len(msgs), p.topic)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
