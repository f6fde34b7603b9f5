package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventCreated     = "commission_strategy.created"
	EventUpdated     = "commission_strategy.updated"
	EventActivated   = "commission_strategy.activated"
	EventDeactivated = "commission_strategy.deactivated"
)

type EventBase struct {
	StrategyID uuid.UUID `json:"strategyId"`
	Name       string    `json:"name"`
	At         time.Time `json:"occurredAt"`
}

func (e EventBase) AggregateID() uuid.UUID { return e.StrategyID }
func (e EventBase) OccurredAt() time.Time  { return e.At }

type CreatedEvent struct {
	EventBase
	Type  Type            `json:"type"`
	Value decimal.Decimal `json:"value"`
}

func (CreatedEvent) EventName() string { return EventCreated }

type UpdatedEvent struct {
	EventBase
	Type  Type            `json:"type"`
	Value decimal.Decimal `json:"value"`
}

func (UpdatedEvent) EventName() string { return EventUpdated }

type ActivatedEvent struct {
	EventBase
}

func (ActivatedEvent) EventName() string { return EventActivated }

type DeactivatedEvent struct {
	EventBase
}

func (DeactivatedEvent) EventName() string { return EventDeactivated }
