package lock

import (
	"context"
	"sync"
	"time"

	"booking-engine/internal/pkg/clock"
)

// MemoryProvider is an in-process lock table for single-instance deployments and tests.
// Expiry is evaluated lazily against the injected clock.
type MemoryProvider struct {
	mu      sync.Mutex
	expires map[string]time.Time
	clock   clock.Clock
}

func NewMemoryProvider(c clock.Clock) *MemoryProvider {
	return &MemoryProvider{
		expires: make(map[string]time.Time),
		clock:   c,
	}
}

func (p *MemoryProvider) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if exp, held := p.expires[key]; held && now.Before(exp) {
		return false, nil
	}
	p.expires[key] = now.Add(ttl)
	return true, nil
}

func (p *MemoryProvider) Release(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.expires, key)
	return nil
}

func (p *MemoryProvider) Extend(_ context.Context, key string, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	exp, held := p.expires[key]
	if !held || !now.Before(exp) {
		delete(p.expires, key)
		return false, nil
	}
	p.expires[key] = now.Add(ttl)
	return true, nil
}

// Held reports whether key is currently locked.
func (p *MemoryProvider) Held(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	exp, held := p.expires[key]
	return held && p.clock.Now().Before(exp)
}
