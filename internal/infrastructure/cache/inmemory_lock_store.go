package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
)

// InMemoryLockStore implements shared.LockStore for single-instance
// deployments and tests. Expired keys are dropped lazily on Acquire.
type InMemoryLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewInMemoryLockStore creates an empty store
func NewInMemoryLockStore() *InMemoryLockStore {
	return &InMemoryLockStore{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Acquire takes key for ttl unless an unexpired holder exists
func (s *InMemoryLockStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, held := s.locks[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	s.locks[key] = now.Add(ttl)
	return true, nil
}

// Release frees key
func (s *InMemoryLockStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

// Close drops every held key
func (s *InMemoryLockStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = make(map[string]time.Time)
	return nil
}

var _ shared.LockStore = (*InMemoryLockStore)(nil)
