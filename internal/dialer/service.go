package dialer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
	"github.com/wolfman30/outreach-ai-platform/internal/twilio"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// DummyCallSID is returned for simulated calls.
const DummyCallSID = "dummy-call"

// LeadStore is the part of the lead repository the dialer touches.
type LeadStore interface {
	GetByID(ctx context.Context, id int64) (*leads.Lead, error)
	Update(ctx context.Context, id int64, req *leads.UpdateLeadRequest) (*leads.Lead, error)
}

// SettingsSource yields the current runtime credentials.
type SettingsSource interface {
	Snapshot(ctx context.Context) (settings.Snapshot, error)
}

// HoursChecker rejects automated calling outside the calling window.
type HoursChecker interface {
	Check(ctx context.Context) error
}

// CallPlacer starts the telephony leg.
type CallPlacer interface {
	CreateCall(ctx context.Context, creds twilio.Credentials, req twilio.CallRequest) (*twilio.Call, error)
}

// CallRequest is the body of POST /call.
type CallRequest struct {
	LeadID   int64  `json:"lead_id"`
	Script   string `json:"script"`
	IsManual bool   `json:"is_manual"`
}

// CallResult is returned for every placed call.
type CallResult struct {
	CallSID string `json:"call_sid"`
	Dummy   bool   `json:"dummy,omitempty"`
}

// Service places outbound calls to leads.
type Service struct {
	leads    LeadStore
	settings SettingsSource
	placer   CallPlacer
	gate     HoursChecker
	changes  leads.ChangeNotifier
	metrics  *metrics.OutreachMetrics
	logger   *logging.Logger
}

// Option customizes a Service.
type Option func(*Service)

func WithHoursChecker(g HoursChecker) Option {
	return func(s *Service) { s.gate = g }
}

func WithLeadChanges(n leads.ChangeNotifier) Option {
	return func(s *Service) { s.changes = n }
}

func WithMetrics(m *metrics.OutreachMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the dialer.
func NewService(leadStore LeadStore, src SettingsSource, placer CallPlacer, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{leads: leadStore, settings: src, placer: placer, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Call places a call to the lead. Automated calls must fall inside the
// calling window; manual calls skip that check. With incomplete voice
// credentials or TEST_MODE the call is simulated and only the lead moves to
// Calling.
func (s *Service) Call(ctx context.Context, req CallRequest) (*CallResult, error) {
	if req.LeadID <= 0 {
		return nil, ErrMissingLeadID
	}
	lead, err := s.leads.GetByID(ctx, req.LeadID)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("dialer: load lead: %w", err)
	}
	if !req.IsManual && s.gate != nil {
		if err := s.gate.Check(ctx); err != nil {
			return nil, err
		}
	}
	script := strings.TrimSpace(req.Script)
	if script == "" {
		script = DefaultScript(lead)
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialer: load settings: %w", err)
	}

	if snap.DummyCalls() {
		if err := s.markCalling(ctx, lead.ID); err != nil {
			return nil, err
		}
		s.metrics.ObserveCall(true, "placed")
		s.logger.Info("dummy call placed", "lead_id", lead.ID, "manual", req.IsManual)
		return &CallResult{CallSID: DummyCallSID, Dummy: true}, nil
	}

	if strings.TrimSpace(lead.Phone) == "" {
		return nil, ErrNoPhone
	}
	from := snap.TwilioPhoneNumber()
	if from == "" {
		s.metrics.ObserveCall(false, "failed")
		return nil, ErrNoCallerNumber
	}

	call, err := s.placer.CreateCall(ctx, twilio.Credentials{
		AccountSID: snap.TwilioAccountSID(),
		AuthToken:  snap.TwilioAuthToken(),
	}, twilio.CallRequest{
		To:             lead.Phone,
		From:           from,
		URL:            VoiceURL(snap.CallbackURL(), lead.ID, script),
		StatusCallback: StatusURL(snap.CallbackURL(), lead.ID),
		Record:         snap.RecordingEnabled(),
	})
	if err != nil {
		s.metrics.ObserveCall(false, "failed")
		return nil, err
	}
	if err := s.markCalling(ctx, lead.ID); err != nil {
		return nil, err
	}
	s.metrics.ObserveCall(false, "placed")
	s.logger.Info("call placed", "lead_id", lead.ID, "call_sid", call.SID, "manual", req.IsManual)
	return &CallResult{CallSID: call.SID}, nil
}

// CallLead places an automated call with the default script.
func (s *Service) CallLead(ctx context.Context, leadID int64) error {
	_, err := s.Call(ctx, CallRequest{LeadID: leadID})
	return err
}

func (s *Service) markCalling(ctx context.Context, id int64) error {
	status := leads.StatusCalling
	updated, err := s.leads.Update(ctx, id, &leads.UpdateLeadRequest{Status: &status})
	if err != nil {
		return fmt.Errorf("dialer: mark calling: %w", err)
	}
	if s.changes != nil {
		s.changes.LeadChanged(updated)
	}
	return nil
}

// VoiceURL is the TwiML webhook Twilio fetches once the lead answers.
func VoiceURL(callbackBase string, leadID int64, script string) string {
	q := url.Values{}
	q.Set("lead_id", strconv.FormatInt(leadID, 10))
	if script != "" {
		q.Set("script", script)
	}
	return strings.TrimRight(callbackBase, "/") + "/voice?" + q.Encode()
}

// StatusURL receives call progress callbacks.
func StatusURL(callbackBase string, leadID int64) string {
	return strings.TrimRight(callbackBase, "/") + "/status?lead_id=" + strconv.FormatInt(leadID, 10)
}

// ResponseURL receives the lead's transcribed speech.
func ResponseURL(callbackBase string, leadID int64) string {
	return strings.TrimRight(callbackBase, "/") + "/response?lead_id=" + strconv.FormatInt(leadID, 10)
}
