package leads

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
	Update(ctx context.Context, id int64, req *UpdateLeadRequest) (*Lead, error)
	// TransitionStatus moves the lead to `to` only while it is in `from`.
	TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error)
	SetZohoID(ctx context.Context, id int64, zohoID string) error
	Delete(ctx context.Context, ids []int64) (int64, error)
}

// InMemoryRepository keeps leads in a map; used for local runs and tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	leads  map[int64]*Lead
	now    func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[int64]*Lead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	lead := &Lead{
		ID:                  r.nextID,
		Name:                req.Name,
		Phone:               req.Phone,
		Category:            req.Category,
		Address:             req.Address,
		Website:             req.Website,
		City:                req.City,
		State:               req.State,
		Industry:            req.Industry,
		EmployeeCount:       req.EmployeeCount,
		UsesMobileDevices:   req.UsesMobileDevices,
		Status:              req.Status,
		QualificationStatus: QualificationUnknown,
		Notes:               req.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	r.leads[lead.ID] = lead

	return clone(lead), nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return clone(lead), nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var wanted map[int64]struct{}
	if len(filter.IDs) > 0 {
		wanted = make(map[int64]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = struct{}{}
		}
	}

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if filter.Qualification != "" && lead.QualificationStatus != filter.Qualification {
			continue
		}
		if filter.UnsyncedOnly && lead.ZohoID != "" {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[lead.ID]; !ok {
				continue
			}
		}
		out = append(out, clone(lead))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id int64, req *UpdateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	req.apply(lead)
	lead.UpdatedAt = r.now()
	return clone(lead), nil
}

func (r *InMemoryRepository) TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.Status != from {
		return false, nil
	}
	lead.Status = to
	lead.UpdatedAt = r.now()
	return true, nil
}

func (r *InMemoryRepository) SetZohoID(ctx context.Context, id int64, zohoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.ZohoID = zohoID
	lead.UpdatedAt = r.now()
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := r.leads[id]; ok {
			delete(r.leads, id)
			n++
		}
	}
	return n, nil
}

func clone(l *Lead) *Lead {
	c := *l
	return &c
}
