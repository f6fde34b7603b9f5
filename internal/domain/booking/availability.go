package booking

import (
	"context"

	"github.com/google/uuid"
)

// ConflictFinder returns the bookings of a resource item that may collide with the period.
// Implementations may over-select; the checker filters precisely.
type ConflictFinder interface {
	FindConflicting(ctx context.Context, resourceItemID uuid.UUID, period Period, excludeID *uuid.UUID) ([]*Booking, error)
}

type Availability struct {
	IsAvailable         bool
	ConflictingBookings []*Booking
	AvailableSlots      []Period
}

func (a Availability) ConflictingIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.ConflictingBookings))
	for _, b := range a.ConflictingBookings {
		ids = append(ids, b.ID())
	}
	return ids
}

type AvailabilityChecker struct {
	finder ConflictFinder
}

func NewAvailabilityChecker(finder ConflictFinder) *AvailabilityChecker {
	return &AvailabilityChecker{finder: finder}
}

func (c *AvailabilityChecker) Check(ctx context.Context, resourceItemID uuid.UUID, period Period, excludeID *uuid.UUID) (Availability, error) {
	candidates, err := c.finder.FindConflicting(ctx, resourceItemID, period, excludeID)
	if err != nil {
		return Availability{}, err
	}

	var conflicts []*Booking
	for _, b := range candidates {
		if excludeID != nil && b.ID() == *excludeID {
			continue
		}
		if b.ResourceItemID() != resourceItemID || !b.IsActive() {
			continue
		}
		if b.Period().Overlaps(period) {
			conflicts = append(conflicts, b)
		}
	}

	if len(conflicts) > 0 {
		return Availability{IsAvailable: false, ConflictingBookings: conflicts, AvailableSlots: []Period{}}, nil
	}
	return Availability{IsAvailable: true, ConflictingBookings: []*Booking{}, AvailableSlots: []Period{period}}, nil
}

func (c *AvailabilityChecker) HasConflict(ctx context.Context, resourceItemID uuid.UUID, period Period, excludeID *uuid.UUID) (bool, error) {
	a, err := c.Check(ctx, resourceItemID, period, excludeID)
	if err != nil {
		return false, err
	}
	return !a.IsAvailable, nil
}
