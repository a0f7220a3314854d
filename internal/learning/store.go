package learning

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists learned patterns and trainer feedback.
type Store interface {
	// UpsertPattern records one more success for (industry, type, key).
	UpsertPattern(ctx context.Context, industry, patternType, key, value string, at time.Time) error
	// ListPatterns returns patterns, most successful first.
	ListPatterns(ctx context.Context) ([]*Pattern, error)
	SaveFeedback(ctx context.Context, text string) (*Feedback, error)
}

type patternID struct {
	industry, patternType, key string
}

// MemoryStore keeps patterns in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	patterns map[patternID]*Pattern
	feedback []*Feedback
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patterns: make(map[patternID]*Pattern),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) UpsertPattern(ctx context.Context, industry, patternType, key, value string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := patternID{industry, patternType, key}
	if p, ok := s.patterns[id]; ok {
		p.SuccessCount++
		p.Value = value
		p.LastUsed = at
		p.UpdatedAt = at
		return nil
	}
	s.nextID++
	s.patterns[id] = &Pattern{
		ID:           s.nextID,
		Industry:     industry,
		Type:         patternType,
		Key:          key,
		Value:        value,
		SuccessCount: 1,
		LastUsed:     at,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	return nil
}

func (s *MemoryStore) ListPatterns(ctx context.Context) ([]*Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Pattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		cp := *p
		out = append(out, &cp)
	}
	sortPatterns(out)
	return out, nil
}

func (s *MemoryStore) SaveFeedback(ctx context.Context, text string) (*Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f := &Feedback{ID: s.nextID, Text: text, CreatedAt: s.now()}
	s.feedback = append(s.feedback, f)
	cp := *f
	return &cp, nil
}

// Feedback returns everything saved so far, oldest first.
func (s *MemoryStore) Feedback() []Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Feedback, 0, len(s.feedback))
	for _, f := range s.feedback {
		out = append(out, *f)
	}
	return out
}

// sortPatterns orders by success count, then recency, then id.
func sortPatterns(ps []*Pattern) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].SuccessCount != ps[j].SuccessCount {
			return ps[i].SuccessCount > ps[j].SuccessCount
		}
		if !ps[i].UpdatedAt.Equal(ps[j].UpdatedAt) {
			return ps[i].UpdatedAt.After(ps[j].UpdatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
