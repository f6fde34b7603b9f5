// Package memory holds goroutine-safe in-process stores used when STORAGE_DRIVER=memory
// and by the unit tests.
package memory

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStore enforces the same overlap rule as the PostgreSQL exclusion constraint,
// so it is a correct backstop regardless of lock scope.
type BookingStore struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]*booking.Booking
	logger *slog.Logger
}

func NewBookingStore(logger *slog.Logger) *BookingStore {
	return &BookingStore{
		items:  make(map[uuid.UUID]*booking.Booking),
		logger: logger,
	}
}

func (s *BookingStore) Save(_ context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.items[b.ID()]
	switch {
	case !exists && b.Version() != 0:
		return infra.WrapRepoErr(s.logger, infra.KindStaleVersion, "booking was deleted", nil)
	case exists && stored.Version() != b.Version():
		return infra.WrapRepoErr(s.logger, infra.KindStaleVersion, "booking version mismatch", nil)
	}

	if b.IsActive() {
		for id, other := range s.items {
			if id == b.ID() || other.ResourceItemID() != b.ResourceItemID() || !other.IsActive() {
				continue
			}
			if other.Period().Overlaps(b.Period()) {
				return infra.WrapRepoErr(s.logger, infra.KindConflict, "booking overlaps an active booking", nil)
			}
		}
	}

	b.MarkPersisted(b.Version() + 1)
	s.items[b.ID()] = b.Clone()
	return nil
}

func (s *BookingStore) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.items[id]
	if !ok {
		return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "booking not found", nil)
	}
	return b.Clone(), nil
}

func (s *BookingStore) FindConflicting(
	_ context.Context,
	resourceItemID uuid.UUID,
	period booking.Period,
	excludeID *uuid.UUID,
) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*booking.Booking
	for _, b := range s.items {
		if b.ResourceItemID() != resourceItemID || !b.IsActive() {
			continue
		}
		if excludeID != nil && b.ID() == *excludeID {
			continue
		}
		if b.Period().Overlaps(period) {
			out = append(out, b.Clone())
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *BookingStore) FindOverdue(_ context.Context, now time.Time, limit int) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*booking.Booking
	for _, b := range s.items {
		if b.CanBeExpired() && b.IsPaymentOverdue(now) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := *out[i].PaymentDeadline(), *out[j].PaymentDeadline()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].ID().String() < out[j].ID().String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *BookingStore) List(_ context.Context, filter queries.BookingFilter) ([]*booking.Booking, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(filter)
	sortByStart(matched)

	total := len(matched)
	if filter.Offset >= total {
		return []*booking.Booking{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < total {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (s *BookingStore) Statistics(_ context.Context, filter queries.BookingFilter) (*queries.BookingStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &queries.BookingStatistics{ByStatus: make(map[string]int)}
	revenue := make(map[string]*queries.RevenueView)

	for _, b := range s.match(filter) {
		stats.Total++
		stats.ByStatus[b.Status().String()]++

		if b.Status() != booking.StatusConfirmed && b.Status() != booking.StatusCompleted {
			continue
		}
		p := b.Price()
		r, ok := revenue[p.Currency()]
		if !ok {
			r = &queries.RevenueView{Currency: p.Currency(), Base: decimal.Zero, Commission: decimal.Zero, Total: decimal.Zero}
			revenue[p.Currency()] = r
		}
		r.Base = r.Base.Add(p.Base())
		r.Commission = r.Commission.Add(p.Commission())
		r.Total = r.Total.Add(p.Total())
	}

	currencies := make([]string, 0, len(revenue))
	for c := range revenue {
		currencies = append(currencies, c)
	}
	slices.Sort(currencies)
	for _, c := range currencies {
		stats.Revenue = append(stats.Revenue, *revenue[c])
	}
	return stats, nil
}

// match must be called with the read lock held.
func (s *BookingStore) match(filter queries.BookingFilter) []*booking.Booking {
	var out []*booking.Booking
	for _, b := range s.items {
		if filter.Matches(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func sortByStart(items []*booking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		si, sj := items[i].Period().Start(), items[j].Period().Start()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return items[i].ID().String() < items[j].ID().String()
	})
}
