package learning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/llm"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

const (
	DefaultDays       = 30
	maxDays           = 365
	patternsPerColumn = 5
)

// LeadLister lists leads.
type LeadLister interface {
	List(ctx context.Context, filter leads.ListFilter) ([]*leads.Lead, error)
}

// TranscriptSource yields call logs written since a point in time.
type TranscriptSource interface {
	ListSince(ctx context.Context, since time.Time) ([]*calllogs.CallLog, error)
}

// SettingsSource yields the current runtime credentials.
type SettingsSource interface {
	Snapshot(ctx context.Context) (settings.Snapshot, error)
}

// LLMFactory hands out a model client for a provider; nil when a key-based
// provider has no key.
type LLMFactory interface {
	Client(ctx context.Context, provider, apiKey string) (llm.Client, error)
}

// Service runs learning passes and assembles the pattern catalogue.
type Service struct {
	store    Store
	leads    LeadLister
	logs     TranscriptSource
	settings SettingsSource
	factory  LLMFactory
	now      func() time.Time
	logger   *logging.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithModel classifies with the language model when an LLM key is configured.
func WithModel(src SettingsSource, factory LLMFactory) Option {
	return func(s *Service) {
		s.settings = src
		s.factory = factory
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, leadLister LeadLister, logs TranscriptSource, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{store: store, leads: leadLister, logs: logs, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Patterns returns the most successful learned lines per category, filling
// categories with nothing learned from SeedPatterns.
func (s *Service) Patterns(ctx context.Context) (Patterns, error) {
	learned, err := s.store.ListPatterns(ctx)
	if err != nil {
		return Patterns{}, err
	}
	var out Patterns
	seen := map[string]struct{}{}
	for _, p := range learned {
		slot := out.slot(p.Type)
		if slot == nil || len(*slot) >= patternsPerColumn {
			continue
		}
		// The same line learned for several industries is listed once.
		id := p.Type + "|" + p.Key
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		*slot = append(*slot, p.Value)
	}
	seeds := SeedPatterns()
	for _, c := range Categories {
		if slot := out.slot(c); len(*slot) == 0 {
			*slot = append(*slot, *seeds.slot(c)...)
		}
	}
	return out, nil
}

type observation struct {
	industry string
	sentence string
}

// Learn classifies the agent's lines from calls with leads that ended
// Qualified or Appointment Set within the last req.Days days and records each
// as a success for the lead's industry.
func (s *Service) Learn(ctx context.Context, req LearnRequest) (LearnResult, error) {
	if req.Days == 0 {
		req.Days = DefaultDays
	}
	if req.Days < 0 || req.Days > maxDays {
		return LearnResult{}, ErrInvalidDays
	}
	if text := strings.TrimSpace(req.Feedback); text != "" {
		if _, err := s.store.SaveFeedback(ctx, text); err != nil {
			return LearnResult{}, err
		}
	}

	all, err := s.leads.List(ctx, leads.ListFilter{})
	if err != nil {
		return LearnResult{}, fmt.Errorf("learning: list leads: %w", err)
	}
	successful := make(map[int64]*leads.Lead)
	for _, l := range all {
		if l.QualificationStatus == leads.QualificationQualified || l.Status == leads.StatusAppointmentSet {
			successful[l.ID] = l
		}
	}

	now := s.now().UTC()
	logs, err := s.logs.ListSince(ctx, now.AddDate(0, 0, -req.Days))
	if err != nil {
		return LearnResult{}, fmt.Errorf("learning: list call logs: %w", err)
	}

	starts := map[int64]int{}
	spoke := map[int64]bool{}
	var observations []observation
	perLead := map[int64]map[string]struct{}{}
	for _, log := range logs {
		lead, ok := successful[log.LeadID]
		if !ok {
			continue
		}
		if log.CallStatus == calllogs.StatusStarted {
			starts[log.LeadID]++
		}
		speaker, text := calllogs.ParseLine(log.Transcript)
		if speaker != calllogs.SpeakerAssistant {
			continue
		}
		spoke[log.LeadID] = true
		if perLead[log.LeadID] == nil {
			perLead[log.LeadID] = map[string]struct{}{}
		}
		for _, sentence := range Sentences(text) {
			key := PatternKey(sentence)
			if _, dup := perLead[log.LeadID][key]; dup {
				continue
			}
			perLead[log.LeadID][key] = struct{}{}
			observations = append(observations, observation{industry: lead.IndustryLabel(), sentence: sentence})
		}
	}

	calls := 0
	for id := range spoke {
		if starts[id] > 0 {
			calls += starts[id]
		} else {
			calls++
		}
	}
	if len(observations) == 0 {
		s.logger.Info("learning run found no transcripts", "days", req.Days)
		return LearnResult{CallsAnalyzed: calls}, nil
	}

	// Classify each distinct sentence once.
	index := map[string]int{}
	var unique []string
	for _, o := range observations {
		key := PatternKey(o.sentence)
		if _, ok := index[key]; !ok {
			index[key] = len(unique)
			unique = append(unique, o.sentence)
		}
	}
	labels, err := s.classifier(ctx).Classify(ctx, unique)
	if err != nil {
		return LearnResult{}, fmt.Errorf("learning: classify: %w", err)
	}

	identified := map[string]struct{}{}
	for _, o := range observations {
		key := PatternKey(o.sentence)
		category, ok := labels[index[key]]
		if !ok {
			continue
		}
		if err := s.store.UpsertPattern(ctx, o.industry, category, key, o.sentence, now); err != nil {
			return LearnResult{}, err
		}
		identified[o.industry+"|"+category+"|"+key] = struct{}{}
	}

	res := LearnResult{CallsAnalyzed: calls, PatternsIdentified: len(identified)}
	s.logger.Info("learning run complete", "days", req.Days, "calls_analyzed", res.CallsAnalyzed, "patterns_identified", res.PatternsIdentified)
	return res, nil
}

func (s *Service) classifier(ctx context.Context) Classifier {
	if s.settings == nil || s.factory == nil {
		return KeywordClassifier{}
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil || snap.TestMode() || !snap.LLMConfigured() {
		return KeywordClassifier{}
	}
	client, err := s.factory.Client(ctx, snap.LLMProvider(), snap.LLMAPIKey())
	if err != nil || client == nil {
		if err != nil {
			s.logger.Warn("llm client unavailable, classifying with keywords", "error", err)
		}
		return KeywordClassifier{}
	}
	return NewModelClassifier(client, s.logger)
}
