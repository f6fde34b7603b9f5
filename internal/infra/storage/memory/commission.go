package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"booking-engine/internal/domain/commission"
	"booking-engine/internal/infra"

	"github.com/google/uuid"
)

// StrategyStore keeps strategies by id and enforces unique names like the SQL index does.
type StrategyStore struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]*commission.Strategy
	logger *slog.Logger
}

func NewStrategyStore(logger *slog.Logger) *StrategyStore {
	return &StrategyStore{
		items:  make(map[uuid.UUID]*commission.Strategy),
		logger: logger,
	}
}

func (s *StrategyStore) Save(_ context.Context, st *commission.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, other := range s.items {
		if id != st.ID() && other.Name() == st.Name() {
			return infra.WrapRepoErr(s.logger, infra.KindDuplicateKey, "strategy name already exists", nil)
		}
	}
	s.items[st.ID()] = cloneStrategy(st)
	return nil
}

func (s *StrategyStore) FindByID(_ context.Context, id uuid.UUID) (*commission.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.items[id]
	if !ok {
		return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "strategy not found", nil)
	}
	return cloneStrategy(st), nil
}

func (s *StrategyStore) FindByName(_ context.Context, name string) (*commission.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.items {
		if st.Name() == name {
			return cloneStrategy(st), nil
		}
	}
	return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "strategy not found", nil)
}

// FindActive returns one consistent snapshot taken under a single read lock.
func (s *StrategyStore) FindActive(_ context.Context) ([]*commission.Strategy, error) {
	return s.collect(func(st *commission.Strategy) bool { return st.IsActive() }), nil
}

func (s *StrategyStore) FindAll(_ context.Context) ([]*commission.Strategy, error) {
	return s.collect(func(*commission.Strategy) bool { return true }), nil
}

func (s *StrategyStore) collect(keep func(*commission.Strategy) bool) []*commission.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*commission.Strategy, 0, len(s.items))
	for _, st := range s.items {
		if keep(st) {
			out = append(out, cloneStrategy(st))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().Before(out[j].CreatedAt())
		}
		return out[i].ID().String() < out[j].ID().String()
	})
	return out
}

func cloneStrategy(st *commission.Strategy) *commission.Strategy {
	return commission.Reconstruct(
		st.ID(),
		st.Name(),
		st.Type(),
		st.Value(),
		st.IsActive(),
		st.Priority(),
		st.ApplicableResourceTypes(),
		st.MinBookingDurationHours(),
		st.MaxBookingDurationHours(),
		st.CreatedAt(),
		st.UpdatedAt(),
	)
}
