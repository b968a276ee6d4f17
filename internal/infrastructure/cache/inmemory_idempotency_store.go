package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shivfurniture/erp/internal/domain/shared"
)

const sweepEvery = 5 * time.Minute

// InMemoryIdempotencyStore keeps claims in process memory, so two API
// instances do not see each other's claims. Expired claims are swept during
// Claim at most once per sweepEvery.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	until     map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{until: map[string]time.Time{}, now: time.Now}
}

func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepEvery {
		s.sweepLocked(now)
	}
	if held, ok := s.until[key]; ok && now.Before(held) {
		return false, nil
	}
	s.until[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.until, key)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLocked(now time.Time) {
	for key, held := range s.until {
		if !now.Before(held) {
			delete(s.until, key)
		}
	}
	s.lastSweep = now
}

// Len is the number of claims currently tracked, expired ones included
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.until)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
