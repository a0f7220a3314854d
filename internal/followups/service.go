package followups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// CallerFunc places an automated call to a lead.
type CallerFunc func(ctx context.Context, leadID int64) error

// HoursChecker rejects automated calling outside the calling window.
type HoursChecker interface {
	Check(ctx context.Context) error
}

// LeadGetter resolves leads for validation.
type LeadGetter interface {
	GetByID(ctx context.Context, id int64) (*leads.Lead, error)
}

// Result is the outcome of one dispatch round.
type Result struct {
	Count       int     `json:"count"`
	FollowUpIDs []int64 `json:"follow_up_ids"`
}

// Service manages follow-ups and dispatches the due ones.
type Service struct {
	store   Store
	leads   LeadGetter
	gate    HoursChecker
	call    CallerFunc
	metrics *metrics.OutreachMetrics
	logger  *logging.Logger
	loc     *time.Location
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCaller sets the function used to place dispatched calls.
func WithCaller(fn CallerFunc) Option {
	return func(s *Service) { s.call = fn }
}

// WithHoursChecker gates dispatch on the calling window.
func WithHoursChecker(g HoursChecker) Option {
	return func(s *Service) { s.gate = g }
}

// WithMetrics records dispatch outcomes.
func WithMetrics(m *metrics.OutreachMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocation sets the zone used for scheduled times sent without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the follow-up service.
func NewService(store Store, leadGetter LeadGetter, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:  store,
		leads:  leadGetter,
		logger: logger,
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*FollowUp, error) {
	f, err := req.Build(s.loc)
	if err != nil {
		return nil, err
	}
	if err := s.requireLead(ctx, f.LeadID); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, f)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*FollowUp, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, ErrInvalidStatus
	}
	return s.store.List(ctx, filter)
}

func (s *Service) Update(ctx context.Context, id int64, req *UpdateRequest) (*FollowUp, error) {
	p, err := req.Patch(s.loc)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, p)
}

// Schedule books a Pending follow-up after the given delay.
func (s *Service) Schedule(ctx context.Context, leadID int64, after time.Duration, priority int, reason string) (*FollowUp, error) {
	if priority < MinPriority || priority > MaxPriority {
		priority = DefaultPriority
	}
	f, err := s.store.Create(ctx, &FollowUp{
		LeadID:        leadID,
		ScheduledTime: s.now().Add(after).UTC(),
		Priority:      priority,
		Reason:        reason,
		Status:        StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("followups: schedule: %w", err)
	}
	s.logger.Info("follow-up scheduled", "follow_up_id", f.ID, "lead_id", leadID, "scheduled_time", f.ScheduledTime, "reason", reason)
	return f, nil
}

// CallEnded completes any follow-up that was dispatched for the lead.
func (s *Service) CallEnded(ctx context.Context, leadID int64) error {
	n, err := s.store.CompleteInProgress(ctx, leadID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("follow-ups completed", "lead_id", leadID, "count", n)
		for i := int64(0); i < n; i++ {
			s.metrics.ObserveFollowUp("completed")
		}
	}
	return nil
}

// Dispatch claims up to max due follow-ups, one per lead, and calls each lead.
// A follow-up whose call fails goes back to Pending for the next round.
func (s *Service) Dispatch(ctx context.Context, max int) (Result, error) {
	res := Result{FollowUpIDs: []int64{}}
	if max <= 0 {
		max = 10
	}
	if s.gate != nil {
		if err := s.gate.Check(ctx); err != nil {
			return res, err
		}
	}
	if s.call == nil {
		return res, errors.New("followups: dispatch: no caller configured")
	}

	due, err := s.store.ClaimDue(ctx, s.now().UTC(), max)
	if err != nil {
		return res, err
	}
	for _, f := range due {
		if err := s.call(ctx, f.LeadID); err != nil {
			s.logger.Warn("follow-up call failed", "follow_up_id", f.ID, "lead_id", f.LeadID, "error", err)
			s.revert(ctx, f.ID)
			continue
		}
		s.metrics.ObserveFollowUp("dispatched")
		res.FollowUpIDs = append(res.FollowUpIDs, f.ID)
	}
	res.Count = len(res.FollowUpIDs)
	if len(due) > 0 {
		s.logger.Info("follow-ups dispatched", "claimed", len(due), "called", res.Count)
	}
	return res, nil
}

func (s *Service) revert(ctx context.Context, id int64) {
	pending := StatusPending
	if _, err := s.store.Update(ctx, id, Patch{Status: &pending}); err != nil {
		s.logger.Error("revert follow-up failed", "follow_up_id", id, "error", err)
		return
	}
	s.metrics.ObserveFollowUp("reverted")
}

func (s *Service) requireLead(ctx context.Context, id int64) error {
	if s.leads == nil {
		return nil
	}
	if _, err := s.leads.GetByID(ctx, id); err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			return ErrLeadNotFound
		}
		return fmt.Errorf("followups: load lead: %w", err)
	}
	return nil
}
