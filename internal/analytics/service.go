package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/appointments"
	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

type LeadLister interface {
	List(ctx context.Context, filter leads.ListFilter) ([]*leads.Lead, error)
}

type AppointmentLister interface {
	List(ctx context.Context, filter appointments.ListFilter) ([]*appointments.Appointment, error)
}

type CallLogSource interface {
	ListSince(ctx context.Context, since time.Time) ([]*calllogs.CallLog, error)
}

// Service loads the inputs for Compute. Only the lead list is required;
// appointment and call log failures degrade to zeros.
type Service struct {
	leads        LeadLister
	appointments AppointmentLister
	logs         CallLogSource
	loc          *time.Location
	now          func() time.Time
	logger       *logging.Logger
}

func NewService(leadLister LeadLister, appts AppointmentLister, logs CallLogSource, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{leads: leadLister, appointments: appts, logs: logs, loc: time.UTC, now: time.Now, logger: logger}
}

// WithLocation sets the zone calls are bucketed into days by.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Dashboard aggregates everything, or only call logs from the last days
// days when days is positive.
func (s *Service) Dashboard(ctx context.Context, days int) (Dashboard, error) {
	list, err := s.leads.List(ctx, leads.ListFilter{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("analytics: list leads: %w", err)
	}

	booked := 0
	if s.appointments != nil {
		appts, err := s.appointments.List(ctx, appointments.ListFilter{})
		if err != nil {
			s.logger.Warn("analytics: appointments unavailable", "error", err)
		} else {
			booked = len(appts)
		}
	}

	var summary calllogs.Summary
	if s.logs != nil {
		var since time.Time
		if days > 0 {
			since = s.now().AddDate(0, 0, -days)
		}
		logs, err := s.logs.ListSince(ctx, since)
		if err != nil {
			s.logger.Warn("analytics: call logs unavailable", "error", err)
		} else {
			summary = calllogs.Summarize(logs, s.loc)
		}
	}

	return Compute(list, booked, summary), nil
}
