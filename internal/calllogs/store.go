package calllogs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists call logs.
type Store interface {
	Create(ctx context.Context, log *CallLog) (*CallLog, error)
	// ListByLead returns a lead's logs newest first.
	ListByLead(ctx context.Context, leadID int64) ([]*CallLog, error)
	// Thread returns a lead's logs oldest first, for conversation replay.
	Thread(ctx context.Context, leadID int64) ([]*CallLog, error)
	// ListSince returns logs created at or after since, oldest first. A zero
	// since returns everything.
	ListSince(ctx context.Context, since time.Time) ([]*CallLog, error)
	DeleteByLead(ctx context.Context, leadIDs []int64) error
}

// MemoryStore keeps call logs in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	logs   []*CallLog
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) Create(ctx context.Context, log *CallLog) (*CallLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	c := *log
	c.ID = s.nextID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.logs = append(s.logs, &c)
	out := c
	return &out, nil
}

func (s *MemoryStore) ListByLead(ctx context.Context, leadID int64) ([]*CallLog, error) {
	out := s.filter(func(l *CallLog) bool { return l.LeadID == leadID })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *MemoryStore) Thread(ctx context.Context, leadID int64) ([]*CallLog, error) {
	return s.filter(func(l *CallLog) bool { return l.LeadID == leadID }), nil
}

func (s *MemoryStore) ListSince(ctx context.Context, since time.Time) ([]*CallLog, error) {
	return s.filter(func(l *CallLog) bool { return since.IsZero() || !l.CreatedAt.Before(since) }), nil
}

func (s *MemoryStore) DeleteByLead(ctx context.Context, leadIDs []int64) error {
	drop := make(map[int64]struct{}, len(leadIDs))
	for _, id := range leadIDs {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.logs[:0]
	for _, l := range s.logs {
		if _, ok := drop[l.LeadID]; !ok {
			kept = append(kept, l)
		}
	}
	s.logs = kept
	return nil
}

// filter returns copies ordered by created_at, then id.
func (s *MemoryStore) filter(keep func(*CallLog) bool) []*CallLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*CallLog, 0)
	for _, l := range s.logs {
		if keep(l) {
			c := *l
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
