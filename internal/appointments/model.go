package appointments

import (
	"strings"
	"time"
)

// Appointment statuses.
const (
	StatusScheduled   = "Scheduled"
	StatusConfirmed   = "Confirmed"
	StatusCompleted   = "Completed"
	StatusCanceled    = "Canceled"
	StatusRescheduled = "Rescheduled"
)

// Meeting mediums.
const (
	MediumPhone    = "Phone"
	MediumZoom     = "Zoom"
	MediumInPerson = "In-Person"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var validStatuses = map[string]bool{
	StatusScheduled:   true,
	StatusConfirmed:   true,
	StatusCompleted:   true,
	StatusCanceled:    true,
	StatusRescheduled: true,
}

var validMediums = map[string]bool{
	MediumPhone:    true,
	MediumZoom:     true,
	MediumInPerson: true,
}

// Appointment is a booked consultation with a lead.
type Appointment struct {
	ID          int64     `json:"id"`
	LeadID      int64     `json:"lead_id"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      string    `json:"status"`
	Medium      string    `json:"medium"`
	Notes       string    `json:"notes"`
	ZohoEventID string    `json:"zoho_event_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LeadName    string    `json:"lead_name,omitempty"`
	LeadPhone   string    `json:"lead_phone,omitempty"`
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status != StatusCanceled
}

// CreateRequest is the body of POST /appointments.
type CreateRequest struct {
	LeadID int64  `json:"lead_id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
	Medium string `json:"medium"`
	Notes  string `json:"notes"`
}

// Normalize applies defaults and trims whitespace.
func (r *CreateRequest) Normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	if r.Status == "" {
		r.Status = StatusScheduled
	}
	if r.Medium == "" {
		r.Medium = MediumPhone
	}
}

// Validate checks required fields and enumerations.
func (r *CreateRequest) Validate() error {
	if r.LeadID <= 0 {
		return ErrMissingLeadID
	}
	if err := validateDate(r.Date); err != nil {
		return err
	}
	if err := validateTime(r.Time); err != nil {
		return err
	}
	if !validStatuses[r.Status] {
		return ErrInvalidStatus
	}
	if !validMediums[r.Medium] {
		return ErrInvalidMedium
	}
	return nil
}

// UpdateRequest is the body of PATCH /appointments/{id}.
type UpdateRequest struct {
	Date   *string `json:"date,omitempty"`
	Time   *string `json:"time,omitempty"`
	Status *string `json:"status,omitempty"`
	Medium *string `json:"medium,omitempty"`
}

// IsEmpty reports whether no field is set.
func (r *UpdateRequest) IsEmpty() bool {
	return r.Date == nil && r.Time == nil && r.Status == nil && r.Medium == nil
}

// MovesSlot reports whether date or time change.
func (r *UpdateRequest) MovesSlot() bool {
	return r.Date != nil || r.Time != nil
}

// Validate checks the fields that are set.
func (r *UpdateRequest) Validate() error {
	if r.IsEmpty() {
		return ErrNoFieldsToUpdate
	}
	if r.Date != nil {
		if err := validateDate(*r.Date); err != nil {
			return err
		}
	}
	if r.Time != nil {
		if err := validateTime(*r.Time); err != nil {
			return err
		}
	}
	if r.Status != nil && !validStatuses[*r.Status] {
		return ErrInvalidStatus
	}
	if r.Medium != nil && !validMediums[*r.Medium] {
		return ErrInvalidMedium
	}
	return nil
}

type column struct {
	name  string
	value any
}

func (r *UpdateRequest) columns() []column {
	var cols []column
	add := func(name string, v *string) {
		if v != nil {
			cols = append(cols, column{name: name, value: *v})
		}
	}
	add("date", r.Date)
	add("time", r.Time)
	add("status", r.Status)
	add("medium", r.Medium)
	return cols
}

func (r *UpdateRequest) apply(a *Appointment) {
	if r.Date != nil {
		a.Date = *r.Date
	}
	if r.Time != nil {
		a.Time = *r.Time
	}
	if r.Status != nil {
		a.Status = *r.Status
	}
	if r.Medium != nil {
		a.Medium = *r.Medium
	}
}

// ListFilter narrows a listing.
type ListFilter struct {
	LeadID int64
	Date   string
}

func validateDate(v string) error {
	if _, err := time.Parse(dateLayout, v); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func validateTime(v string) error {
	if _, err := time.Parse(timeLayout, v); err != nil || len(v) != len(timeLayout) {
		return ErrInvalidTime
	}
	return nil
}
