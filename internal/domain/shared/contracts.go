// Package shared holds the small contracts implemented by every aggregate and event.
package shared

import (
	"time"

	"github.com/google/uuid"
)

type HasIdentity interface {
	ID() uuid.UUID
}

type Equatable[T any] interface {
	Equals(other T) bool
}

// Event is a fact emitted by an aggregate mutation. Aggregates return events
// from their methods; callers hand them to an event sink after persisting.
type Event interface {
	EventName() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// SameIdentity reports whether two entities carry the same non-nil id.
func SameIdentity(a, b HasIdentity) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID() != uuid.Nil && a.ID() == b.ID()
}
