// Package notify emails operators when an appointment is booked.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Service sends operator notifications about booked appointments.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. recipients is a comma separated
// address list; an empty list disables notifications.
func NewService(email EmailSender, recipients string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	var to []string
	for _, r := range strings.Split(recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	return &Service{email: email, recipients: to, logger: logger}
}

// Enabled reports whether there is anybody to notify.
func (s *Service) Enabled() bool {
	return s != nil && s.email != nil && len(s.recipients) > 0
}

// AppointmentBooked emails every recipient; the first failure is returned
// after all sends were attempted.
func (s *Service) AppointmentBooked(ctx context.Context, b Booking) error {
	if !s.Enabled() {
		s.logger.Debug("notify: no recipients configured, skipping booking email")
		return nil
	}
	var firstErr error
	for _, to := range s.recipients {
		if err := s.email.Send(ctx, b.Message(to)); err != nil {
			s.logger.Error("notify: booking email failed", "to", to, "appointment_id", b.AppointmentID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("notify: send booking email: %w", err)
			}
		}
	}
	return firstErr
}
