//go:build e2e

package eventbus_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra/eventbus"
	"booking-engine/tests/common/builder"
	"booking-engine/tests/e2e"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const exchange = "booking.domain.events.e2e"

type RabbitMQSuite struct {
	suite.Suite
	url   string
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func TestRabbitMQSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQSuite))
}

func (s *RabbitMQSuite) SetupSuite() {
	s.url = e2e.RabbitMQURL(s.T())

	// the publisher declares the exchange; connect it once before binding a queue to it
	p, err := eventbus.NewRabbitMQPublisher(s.url, exchange, discardLogger())
	s.Require().NoError(err)
	s.Require().NoError(p.Close())

	s.conn, err = amqp.Dial(s.url)
	s.Require().NoError(err)
	s.ch, err = s.conn.Channel()
	s.Require().NoError(err)

	q, err := s.ch.QueueDeclare("", false, true, true, false, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.ch.QueueBind(q.Name, "booking.#", exchange, false, nil))
	s.queue = q.Name
}

func (s *RabbitMQSuite) TearDownSuite() {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func (s *RabbitMQSuite) TestPublishRoutesByEventName() {
	t := s.T()

	b, err := builder.NewBookingBuilder().BuildDomain()
	require.NoError(t, err)
	confirmed, err := b.Confirm(builder.BaseTime)
	require.NoError(t, err)
	cancelled, err := b.Cancel("guest changed plans", builder.BaseTime)
	require.NoError(t, err)

	p, err := eventbus.NewRabbitMQPublisher(s.url, exchange, discardLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Close()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Publish(ctx, confirmed, cancelled))

	deliveries, err := s.ch.ConsumeWithContext(ctx, s.queue, "", true, true, false, false, nil)
	require.NoError(t, err)

	for _, name := range []string{booking.EventConfirmed, booking.EventCancelled} {
		select {
		case d := <-deliveries:
			s.Equal(name, d.RoutingKey)
			s.Equal("application/json", d.ContentType)

			var env struct {
				Name        string `json:"name"`
				AggregateID string `json:"aggregate_id"`
			}
			require.NoError(t, json.Unmarshal(d.Body, &env))
			s.Equal(name, env.Name)
			s.Equal(b.ID().String(), env.AggregateID)
		case <-ctx.Done():
			t.Fatalf("no delivery for %s", name)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
