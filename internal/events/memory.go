package events

import (
	"context"
	"sync"
)

// MemoryStore is the in-process Deduper used without Postgres or Redis.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) AlreadyProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[provider+":"+eventID]
	return ok, nil
}

func (s *MemoryStore) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	key := provider + ":" + eventID
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}
