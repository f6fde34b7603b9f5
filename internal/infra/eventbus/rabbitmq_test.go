//go:build unit

package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"booking-engine/internal/infra/eventbus"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	exchange   string
	routingKey string
	msg        amqp.Publishing
}

type recordingChannel struct {
	mu        sync.Mutex
	published []publishedMessage
	failAfter int
	closed    bool
}

func (c *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAfter > 0 && len(c.published) >= c.failAfter {
		return amqp.ErrClosed
	}
	c.published = append(c.published, publishedMessage{exchange: exchange, routingKey: key, msg: msg})
	return nil
}

func (c *recordingChannel) Close() error {
	c.closed = true
	return nil
}

func TestRabbitMQPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("routes each event by name with a JSON envelope", func(t *testing.T) {
		aggregateID, events := confirmedEvents(t)
		ch := &recordingChannel{}
		p := eventbus.NewRabbitMQPublisherWithChannel(ch, "booking.domain.events", discardLogger())

		require.NoError(t, p.Publish(ctx, events...))
		require.Len(t, ch.published, 2)

		for i, name := range []string{"booking.confirmed", "booking.completed"} {
			got := ch.published[i]
			assert.Equal(t, "booking.domain.events", got.exchange)
			assert.Equal(t, name, got.routingKey)
			assert.Equal(t, name, got.msg.Type)
			assert.Equal(t, "application/json", got.msg.ContentType)
			assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

			var env struct {
				ID          string          `json:"id"`
				Name        string          `json:"name"`
				AggregateID string          `json:"aggregate_id"`
				Payload     json.RawMessage `json:"payload"`
			}
			require.NoError(t, json.Unmarshal(got.msg.Body, &env))
			assert.Equal(t, name, env.Name)
			assert.Equal(t, aggregateID, env.AggregateID)
			assert.Equal(t, got.msg.MessageId, env.ID)
			assert.NotEmpty(t, env.Payload)
		}
	})

	t.Run("stops at the first failed publish", func(t *testing.T) {
		_, events := confirmedEvents(t)
		ch := &recordingChannel{failAfter: 1}
		p := eventbus.NewRabbitMQPublisherWithChannel(ch, "booking.domain.events", discardLogger())

		err := p.Publish(ctx, events...)
		require.Error(t, err)
		assert.True(t, errors.Is(err, amqp.ErrClosed))
		assert.Len(t, ch.published, 1)
	})

	t.Run("close closes the channel", func(t *testing.T) {
		ch := &recordingChannel{}
		p := eventbus.NewRabbitMQPublisherWithChannel(ch, "booking.domain.events", discardLogger())

		require.NoError(t, p.Close())
		assert.True(t, ch.closed)
	})
}
