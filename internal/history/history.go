// Package history merges everything known about a lead into one timeline.
package history

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/outreach-ai-platform/internal/appointments"
	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/followups"
	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Entry types.
const (
	TypeCallLog       = "call_log"
	TypeAppointment   = "appointment"
	TypeFollowUp      = "follow_up"
	TypeQualification = "qualification"
)

// Entry is one timeline item. Data carries the type-specific fields.
type Entry struct {
	Type       string         `json:"type"`
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Transcript string         `json:"transcript,omitempty"`
	Medium     string         `json:"medium,omitempty"`
	Priority   int            `json:"priority,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Data       map[string]any `json:"data"`
}

// History is the GET /lead_history/{id} body.
type History struct {
	Lead     *leads.Lead `json:"lead"`
	Timeline []Entry     `json:"timeline"`
}

type LeadGetter interface {
	GetByID(ctx context.Context, id int64) (*leads.Lead, error)
}

type CallLogLister interface {
	ListByLead(ctx context.Context, leadID int64) ([]*calllogs.CallLog, error)
}

type AppointmentLister interface {
	List(ctx context.Context, filter appointments.ListFilter) ([]*appointments.Appointment, error)
}

type FollowUpLister interface {
	List(ctx context.Context, filter followups.ListFilter) ([]*followups.FollowUp, error)
}

// Service assembles lead timelines.
type Service struct {
	leads        LeadGetter
	logs         CallLogLister
	appointments AppointmentLister
	followUps    FollowUpLister
	logger       *logging.Logger
}

func NewService(leadStore LeadGetter, logs CallLogLister, appts AppointmentLister, fus FollowUpLister, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{leads: leadStore, logs: logs, appointments: appts, followUps: fus, logger: logger}
}

// ForLead returns the lead and its timeline, newest first. Follow-ups are
// placed at their scheduled time; the qualification entry at the lead's last
// update, and only once the lead has been assessed.
func (s *Service) ForLead(ctx context.Context, id int64) (*History, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.logs.ListByLead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("history: call logs: %w", err)
	}
	appts, err := s.appointments.List(ctx, appointments.ListFilter{LeadID: id})
	if err != nil {
		return nil, fmt.Errorf("history: appointments: %w", err)
	}
	fus, err := s.followUps.List(ctx, followups.ListFilter{LeadID: id})
	if err != nil {
		return nil, fmt.Errorf("history: follow-ups: %w", err)
	}

	timeline := make([]Entry, 0, len(logs)+len(appts)+len(fus)+1)
	for _, l := range logs {
		timeline = append(timeline, Entry{
			Type:       TypeCallLog,
			Status:     l.CallStatus,
			Timestamp:  l.CreatedAt,
			Transcript: l.Transcript,
			Data:       map[string]any{"id": l.ID, "duration": l.Duration, "call_sid": l.CallSID},
		})
	}
	for _, a := range appts {
		timeline = append(timeline, Entry{
			Type:      TypeAppointment,
			Status:    a.Status,
			Timestamp: a.CreatedAt,
			Medium:    a.Medium,
			Data:      map[string]any{"id": a.ID, "date": a.Date, "time": a.Time, "notes": a.Notes},
		})
	}
	for _, f := range fus {
		timeline = append(timeline, Entry{
			Type:      TypeFollowUp,
			Status:    f.Status,
			Timestamp: f.ScheduledTime,
			Priority:  f.Priority,
			Reason:    f.Reason,
			Data:      map[string]any{"id": f.ID, "notes": f.Notes},
		})
	}
	if q := lead.QualificationStatus; q != "" && q != leads.QualificationUnknown {
		timeline = append(timeline, Entry{
			Type:      TypeQualification,
			Status:    q,
			Timestamp: lead.UpdatedAt,
			Data: map[string]any{
				"employee_count":      lead.EmployeeCount,
				"uses_mobile_devices": lead.UsesMobileDevices,
			},
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.After(timeline[j].Timestamp)
	})
	return &History{Lead: lead, Timeline: timeline}, nil
}

// Handler serves GET /lead_history/{id}.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid lead id")
		return
	}
	hist, err := h.service.ForLead(r.Context(), id)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			respond.Error(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to load lead history", "lead_id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load lead history")
		return
	}
	respond.JSON(w, http.StatusOK, hist)
}
