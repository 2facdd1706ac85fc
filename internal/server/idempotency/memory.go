package idempotency

import (
	"context"
	"sync"
	"time"
)

type record struct {
	expiresAt  time.Time
	resourceID string
}

// MemoryStore in-process хранилище ключей, используется когда Redis не настроен
type MemoryStore struct {
	now        func() time.Time
	records    map[string]record
	ttl        time.Duration
	pendingTTL time.Duration
	mu         sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store whose keys expire after ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		now:        time.Now,
		records:    make(map[string]record),
		ttl:        ttl,
		pendingTTL: pendingTTL(ttl),
	}
}

func (s *MemoryStore) Reserve(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	if r, ok := s.records[key]; ok {
		if r.resourceID == pendingMarker {
			return "", ErrInProgress
		}
		return r.resourceID, nil
	}

	s.records[key] = record{resourceID: pendingMarker, expiresAt: now.Add(s.pendingTTL)}
	return "", nil
}

func (s *MemoryStore) Complete(_ context.Context, key, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = record{resourceID: resourceID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Len количество живых ключей
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(s.now())
	return len(s.records)
}

func (s *MemoryStore) evictLocked(now time.Time) {
	for k, r := range s.records {
		if !now.Before(r.expiresAt) {
			delete(s.records, k)
		}
	}
}

// pendingTTL не больше ttl готового ключа
func pendingTTL(ttl time.Duration) time.Duration {
	return min(ttl, DefaultPendingTTL)
}
