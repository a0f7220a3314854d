package followups

import (
	"strings"
	"time"
)

// Follow-up statuses.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

const (
	DefaultPriority = 5
	MinPriority     = 1
	MaxPriority     = 10
)

// FollowUp is a scheduled call-back for a lead.
type FollowUp struct {
	ID            int64     `json:"id"`
	LeadID        int64     `json:"lead_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Priority      int       `json:"priority"`
	Reason        string    `json:"reason"`
	Notes         string    `json:"notes"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LeadName      string    `json:"lead_name,omitempty"`
	LeadPhone     string    `json:"lead_phone,omitempty"`
}

// Due reports whether a pending follow-up should be dispatched at now.
func (f *FollowUp) Due(now time.Time) bool {
	return f.Status == StatusPending && !f.ScheduledTime.After(now)
}

// ValidStatus reports whether s is a known follow-up status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime accepts RFC 3339 and the zone-less forms browsers send from
// datetime-local inputs; zone-less values are read in loc.
func ParseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidScheduledTime
}

// CreateRequest is the body of POST /follow_ups.
type CreateRequest struct {
	LeadID        int64  `json:"lead_id"`
	ScheduledTime string `json:"scheduled_time"`
	Priority      *int   `json:"priority,omitempty"`
	Reason        string `json:"reason"`
	Notes         string `json:"notes"`
}

// Build validates the request and returns the follow-up to insert.
func (r *CreateRequest) Build(loc *time.Location) (*FollowUp, error) {
	if r.LeadID <= 0 {
		return nil, ErrMissingLeadID
	}
	at, err := ParseTime(r.ScheduledTime, loc)
	if err != nil {
		return nil, err
	}
	priority := DefaultPriority
	if r.Priority != nil {
		priority = *r.Priority
	}
	if priority < MinPriority || priority > MaxPriority {
		return nil, ErrInvalidPriority
	}
	return &FollowUp{
		LeadID:        r.LeadID,
		ScheduledTime: at,
		Priority:      priority,
		Reason:        strings.TrimSpace(r.Reason),
		Notes:         r.Notes,
		Status:        StatusPending,
	}, nil
}

// UpdateRequest is the body of PATCH /follow_ups/{id}.
type UpdateRequest struct {
	Status        *string `json:"status,omitempty"`
	ScheduledTime *string `json:"scheduled_time,omitempty"`
	Priority      *int    `json:"priority,omitempty"`
	Reason        *string `json:"reason,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// Patch is a validated partial update.
type Patch struct {
	Status        *string
	ScheduledTime *time.Time
	Priority      *int
	Reason        *string
	Notes         *string
}

// Patch validates the request.
func (r *UpdateRequest) Patch(loc *time.Location) (Patch, error) {
	var p Patch
	if r.Status == nil && r.ScheduledTime == nil && r.Priority == nil && r.Reason == nil && r.Notes == nil {
		return p, ErrNoFieldsToUpdate
	}
	if r.Status != nil && !ValidStatus(*r.Status) {
		return p, ErrInvalidStatus
	}
	if r.Priority != nil && (*r.Priority < MinPriority || *r.Priority > MaxPriority) {
		return p, ErrInvalidPriority
	}
	if r.ScheduledTime != nil {
		at, err := ParseTime(*r.ScheduledTime, loc)
		if err != nil {
			return p, err
		}
		p.ScheduledTime = &at
	}
	p.Status = r.Status
	p.Priority = r.Priority
	p.Reason = r.Reason
	p.Notes = r.Notes
	return p, nil
}

type column struct {
	name  string
	value any
}

func (p Patch) columns() []column {
	var cols []column
	if p.Status != nil {
		cols = append(cols, column{"status", *p.Status})
	}
	if p.ScheduledTime != nil {
		cols = append(cols, column{"scheduled_time", *p.ScheduledTime})
	}
	if p.Priority != nil {
		cols = append(cols, column{"priority", *p.Priority})
	}
	if p.Reason != nil {
		cols = append(cols, column{"reason", *p.Reason})
	}
	if p.Notes != nil {
		cols = append(cols, column{"notes", *p.Notes})
	}
	return cols
}

func (p Patch) apply(f *FollowUp) {
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.ScheduledTime != nil {
		f.ScheduledTime = *p.ScheduledTime
	}
	if p.Priority != nil {
		f.Priority = *p.Priority
	}
	if p.Reason != nil {
		f.Reason = *p.Reason
	}
	if p.Notes != nil {
		f.Notes = *p.Notes
	}
}

// ListFilter narrows a listing.
type ListFilter struct {
	Status string
	LeadID int64
}
