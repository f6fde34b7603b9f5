// Package eventbus delivers domain events to RabbitMQ, Kafka or the log.
package eventbus

import (
	"encoding/json"
	"time"

	"booking-engine/internal/domain/shared"

	"github.com/google/uuid"
)

// Envelope is the wire format shared by every sink. The event name doubles as the
// RabbitMQ routing key.
type Envelope struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	AggregateID uuid.UUID    `json:"aggregate_id"`
	OccurredAt  time.Time    `json:"occurred_at"`
	Payload     shared.Event `json:"payload"`
}

func NewEnvelope(e shared.Event) Envelope {
	return Envelope{
		ID:          uuid.New(),
		Name:        e.EventName(),
		AggregateID: e.AggregateID(),
		OccurredAt:  e.OccurredAt(),
		Payload:     e,
	}
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
