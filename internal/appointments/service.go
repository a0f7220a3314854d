package appointments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/outreach-ai-platform/internal/crm/zoho"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/notify"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// LeadStore is the part of the lead repository bookings touch.
type LeadStore interface {
	GetByID(ctx context.Context, id int64) (*leads.Lead, error)
	Update(ctx context.Context, id int64, req *leads.UpdateLeadRequest) (*leads.Lead, error)
}

// Calendar mirrors appointments into the CRM calendar.
type Calendar interface {
	Configured(ctx context.Context) bool
	CreateEvent(ctx context.Context, ev zoho.Event) (string, error)
	UpdateEvent(ctx context.Context, eventID string, ev zoho.Event) error
	FreeSlots(ctx context.Context, date string) ([]string, error)
}

// BookingNotifier is told about every new appointment.
type BookingNotifier interface {
	AppointmentBooked(ctx context.Context, b notify.Booking) error
}

// Service books, reschedules and lists appointments and keeps the lead in step.
type Service struct {
	store    Store
	leads    LeadStore
	calendar Calendar
	notifier BookingNotifier
	link     func(ctx context.Context) string
	changes  leads.ChangeNotifier
	logger   *logging.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithCalendar enables CRM event sync and CRM-backed availability.
func WithCalendar(c Calendar) Option {
	return func(s *Service) { s.calendar = c }
}

// WithBookingNotifier sends an email for every new booking.
func WithBookingNotifier(n BookingNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithAppointmentLink supplies the meeting link included in notifications.
func WithAppointmentLink(fn func(ctx context.Context) string) Option {
	return func(s *Service) { s.link = fn }
}

// WithLeadChanges publishes lead updates caused by bookings.
func WithLeadChanges(n leads.ChangeNotifier) Option {
	return func(s *Service) { s.changes = n }
}

// NewService wires the booking service.
func NewService(store Store, leadStore LeadStore, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{store: store, leads: leadStore, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book creates the appointment, marks the lead Appointment Set and Qualified,
// then syncs the CRM and notifies operators. The appointment is removed again
// when the lead update fails. CRM and email failures are logged
// and do not fail the booking.
func (s *Service) Book(ctx context.Context, req *CreateRequest) (*Appointment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, req.LeadID)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("appointments: load lead: %w", err)
	}

	appt, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	status := leads.StatusAppointmentSet
	qualified := leads.QualificationQualified
	updated, err := s.leads.Update(ctx, lead.ID, &leads.UpdateLeadRequest{
		Status:              &status,
		QualificationStatus: &qualified,
		AppointmentDate:     &appt.Date,
		AppointmentTime:     &appt.Time,
	})
	if err != nil {
		// Roll the booking back so a failed lead write leaves no orphan row.
		if derr := s.store.Delete(ctx, appt.ID); derr != nil {
			s.logger.Error("failed to remove appointment after lead update error", "appointment_id", appt.ID, "error", derr)
		}
		return nil, fmt.Errorf("appointments: update lead: %w", err)
	}
	s.leadChanged(updated)

	appt.LeadName = updated.Name
	appt.LeadPhone = updated.Phone
	s.logger.Info("appointment booked", "appointment_id", appt.ID, "lead_id", lead.ID, "date", appt.Date, "time", appt.Time)

	s.createEvent(ctx, appt, updated)
	s.sendBookingNotice(ctx, appt)
	return appt, nil
}

// Reschedule applies a partial update. Date/time changes are copied onto the
// lead; date, time or medium changes are pushed to the CRM event.
func (s *Service) Reschedule(ctx context.Context, id int64, req *UpdateRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	appt, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	var lead *leads.Lead
	if req.MovesSlot() {
		lead, err = s.leads.Update(ctx, appt.LeadID, &leads.UpdateLeadRequest{
			AppointmentDate: req.Date,
			AppointmentTime: req.Time,
		})
		if err != nil && !errors.Is(err, leads.ErrLeadNotFound) {
			return nil, fmt.Errorf("appointments: update lead: %w", err)
		}
		s.leadChanged(lead)
	}

	if req.MovesSlot() || req.Medium != nil {
		if lead == nil {
			lead, _ = s.leads.GetByID(ctx, appt.LeadID)
		}
		s.updateEvent(ctx, appt, lead)
	}
	return appt, nil
}

// List returns appointments with the lead name and phone filled in.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	cache := map[int64]*leads.Lead{}
	for _, a := range list {
		if a.LeadName != "" {
			continue
		}
		l, ok := cache[a.LeadID]
		if !ok {
			l, _ = s.leads.GetByID(ctx, a.LeadID)
			cache[a.LeadID] = l
		}
		if l != nil {
			a.LeadName = l.Name
			a.LeadPhone = l.Phone
		}
	}
	return list, nil
}

// Availability lists open slots for date. The CRM calendar wins when it is
// configured and reports any free slot; otherwise the hourly local grid is used.
func (s *Service) Availability(ctx context.Context, date string) ([]string, error) {
	if date == "" {
		return HourlySlots(nil), nil
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if s.calendar != nil && s.calendar.Configured(ctx) {
		slots, err := s.calendar.FreeSlots(ctx, date)
		if err != nil {
			s.logger.Warn("crm availability failed, using local slots", "date", date, "error", err)
		} else if len(slots) > 0 {
			return slots, nil
		}
	}
	booked, err := s.store.BookedTimes(ctx, date)
	if err != nil {
		return nil, err
	}
	return HourlySlots(booked), nil
}

const (
	firstHour = 9
	lastHour  = 16
)

// HourlySlots returns "HH:00" for 09..16 minus the hours present in booked.
func HourlySlots(booked []string) []string {
	taken := map[int]bool{}
	for _, t := range booked {
		h, err := strconv.Atoi(strings.SplitN(t, ":", 2)[0])
		if err == nil {
			taken[h] = true
		}
	}
	slots := []string{}
	for h := firstHour; h <= lastHour; h++ {
		if !taken[h] {
			slots = append(slots, fmt.Sprintf("%02d:00", h))
		}
	}
	return slots
}

func (s *Service) event(appt *Appointment, lead *leads.Lead) zoho.Event {
	ev := zoho.Event{Date: appt.Date, Time: appt.Time, Medium: appt.Medium, LeadName: appt.LeadName}
	if lead != nil {
		ev.LeadName = lead.Name
		ev.ZohoLeadID = lead.ZohoID
	}
	return ev
}

func (s *Service) createEvent(ctx context.Context, appt *Appointment, lead *leads.Lead) {
	if s.calendar == nil || !s.calendar.Configured(ctx) {
		return
	}
	id, err := s.calendar.CreateEvent(ctx, s.event(appt, lead))
	if err != nil {
		s.logger.Warn("crm event create failed", "appointment_id", appt.ID, "error", err)
		return
	}
	if err := s.store.SetZohoEventID(ctx, appt.ID, id); err != nil {
		s.logger.Warn("failed to store crm event id", "appointment_id", appt.ID, "error", err)
		return
	}
	appt.ZohoEventID = id
}

func (s *Service) updateEvent(ctx context.Context, appt *Appointment, lead *leads.Lead) {
	if s.calendar == nil || !s.calendar.Configured(ctx) {
		return
	}
	if appt.ZohoEventID == "" {
		s.createEvent(ctx, appt, lead)
		return
	}
	if err := s.calendar.UpdateEvent(ctx, appt.ZohoEventID, s.event(appt, lead)); err != nil {
		s.logger.Warn("crm event update failed", "appointment_id", appt.ID, "error", err)
	}
}

func (s *Service) sendBookingNotice(ctx context.Context, appt *Appointment) {
	if s.notifier == nil {
		return
	}
	b := notify.Booking{
		AppointmentID: appt.ID,
		LeadName:      appt.LeadName,
		LeadPhone:     appt.LeadPhone,
		Date:          appt.Date,
		Time:          appt.Time,
		Medium:        appt.Medium,
	}
	if s.link != nil {
		b.Link = s.link(ctx)
	}
	if err := s.notifier.AppointmentBooked(ctx, b); err != nil {
		s.logger.Warn("booking notification failed", "appointment_id", appt.ID, "error", err)
	}
}

func (s *Service) leadChanged(l *leads.Lead) {
	if s.changes != nil && l != nil {
		s.changes.LeadChanged(l)
	}
}
