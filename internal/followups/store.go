package followups

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists follow-ups.
type Store interface {
	Create(ctx context.Context, f *FollowUp) (*FollowUp, error)
	GetByID(ctx context.Context, id int64) (*FollowUp, error)
	// List returns follow-ups ordered by scheduled_time.
	List(ctx context.Context, filter ListFilter) ([]*FollowUp, error)
	Update(ctx context.Context, id int64, p Patch) (*FollowUp, error)
	// ClaimDue moves up to limit due Pending follow-ups to In Progress, at most
	// one per lead, highest priority first then earliest scheduled.
	ClaimDue(ctx context.Context, asOf time.Time, limit int) ([]*FollowUp, error)
	// CompleteInProgress marks the lead's In Progress follow-ups Completed.
	CompleteInProgress(ctx context.Context, leadID int64) (int64, error)
	DeleteByLead(ctx context.Context, leadIDs []int64) error
}

// SortForDispatch orders follow-ups by priority desc, then scheduled time asc.
func SortForDispatch(list []*FollowUp) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		if !list[i].ScheduledTime.Equal(list[j].ScheduledTime) {
			return list[i].ScheduledTime.Before(list[j].ScheduledTime)
		}
		return list[i].ID < list[j].ID
	})
}

// MemoryStore keeps follow-ups in a map.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*FollowUp
	now    func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[int64]*FollowUp),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(ctx context.Context, f *FollowUp) (*FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cp := *f
	cp.ID = s.nextID
	if cp.Status == "" {
		cp.Status = StatusPending
	}
	cp.CreatedAt = s.now()
	cp.UpdatedAt = cp.CreatedAt
	s.items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FollowUp, 0, len(s.items))
	for _, f := range s.items {
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.LeadID != 0 && f.LeadID != filter.LeadID {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.Before(out[j].ScheduledTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, p Patch) (*FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.apply(f)
	f.UpdatedAt = s.now()
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) ClaimDue(ctx context.Context, asOf time.Time, limit int) ([]*FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*FollowUp
	for _, f := range s.items {
		if f.Due(asOf) {
			due = append(due, f)
		}
	}
	SortForDispatch(due)

	seen := map[int64]bool{}
	var out []*FollowUp
	for _, f := range due {
		if limit > 0 && len(out) >= limit {
			break
		}
		if seen[f.LeadID] {
			continue
		}
		seen[f.LeadID] = true
		f.Status = StatusInProgress
		f.UpdatedAt = s.now()
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) CompleteInProgress(ctx context.Context, leadID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, f := range s.items {
		if f.LeadID == leadID && f.Status == StatusInProgress {
			f.Status = StatusCompleted
			f.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteByLead(ctx context.Context, leadIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[int64]struct{}, len(leadIDs))
	for _, id := range leadIDs {
		drop[id] = struct{}{}
	}
	for id, f := range s.items {
		if _, ok := drop[f.LeadID]; ok {
			delete(s.items, id)
		}
	}
	return nil
}
