package appointments

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists appointments.
type Store interface {
	Create(ctx context.Context, req *CreateRequest) (*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	// List returns appointments ordered by date, then time.
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)
	Update(ctx context.Context, id int64, req *UpdateRequest) (*Appointment, error)
	SetZohoEventID(ctx context.Context, id int64, eventID string) error
	// BookedTimes lists the times of non-canceled appointments on date.
	BookedTimes(ctx context.Context, date string) ([]string, error)
	Delete(ctx context.Context, id int64) error
	DeleteByLead(ctx context.Context, leadIDs []int64) error
}

// MemoryStore keeps appointments in a map.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]*Appointment
	now    func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[int64]*Appointment),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(ctx context.Context, req *CreateRequest) (*Appointment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a := &Appointment{
		ID:        s.nextID,
		LeadID:    req.LeadID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    req.Status,
		Medium:    req.Medium,
		Notes:     req.Notes,
		CreatedAt: s.now(),
	}
	s.items[a.ID] = a
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Appointment, 0, len(s.items))
	for _, a := range s.items {
		if filter.LeadID != 0 && a.LeadID != filter.LeadID {
			continue
		}
		if filter.Date != "" && a.Date != filter.Date {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, req *UpdateRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	req.apply(a)
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) SetZohoEventID(ctx context.Context, id int64, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	a.ZohoEventID = eventID
	return nil
}

func (s *MemoryStore) BookedTimes(ctx context.Context, date string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, a := range s.items {
		if a.Date == date && a.Active() {
			out = append(out, a.Time)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) DeleteByLead(ctx context.Context, leadIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[int64]struct{}, len(leadIDs))
	for _, id := range leadIDs {
		drop[id] = struct{}{}
	}
	for id, a := range s.items {
		if _, ok := drop[a.LeadID]; ok {
			delete(s.items, id)
		}
	}
	return nil
}
