package sourcing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/outreach-ai-platform/internal/crm/zoho"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

var tracer = otel.Tracer("outreach.internal.sourcing")

const (
	DefaultLocation = "Denver, CO"
	DefaultIndustry = "Plumbing"
	DefaultLimit    = 30
	maxLimit        = 100
)

// ScrapeRequest is the body of POST /scrape.
type ScrapeRequest struct {
	Location string `json:"location"`
	Industry string `json:"industry"`
	Limit    int    `json:"limit"`
}

func (r *ScrapeRequest) applyDefaults() {
	r.Location = strings.TrimSpace(r.Location)
	r.Industry = strings.TrimSpace(r.Industry)
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	if r.Industry == "" {
		r.Industry = DefaultIndustry
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
}

// ScrapeResult reports the inserted leads. Dummy is set when no Bright Data
// token was configured and sample listings were used.
type ScrapeResult struct {
	InsertedIDs []int64 `json:"inserted_ids"`
	Count       int     `json:"count"`
	Dummy       bool    `json:"dummy"`
}

// Searcher is the live listing source.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// LeadCreator inserts leads.
type LeadCreator interface {
	Create(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error)
}

// SettingsSource yields the current runtime credentials.
type SettingsSource interface {
	Snapshot(ctx context.Context) (settings.Snapshot, error)
}

// CRMSyncer mirrors new leads into the CRM.
type CRMSyncer interface {
	Configured(ctx context.Context) bool
	SyncLeads(ctx context.Context, ids []int64) (zoho.SyncResult, error)
}

// Service turns listings into leads.
type Service struct {
	leads    LeadCreator
	settings SettingsSource
	searcher Searcher
	crm      CRMSyncer
	logger   *logging.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithSearcher enables live listings when a Bright Data token is configured.
func WithSearcher(s Searcher) Option {
	return func(svc *Service) { svc.searcher = s }
}

// WithCRM syncs inserted leads when the CRM is configured.
func WithCRM(c CRMSyncer) Option {
	return func(svc *Service) { svc.crm = c }
}

func NewService(leadStore LeadCreator, src SettingsSource, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{leads: leadStore, settings: src, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches listings and inserts them as Not Called leads.
func (s *Service) Scrape(ctx context.Context, req ScrapeRequest) (ScrapeResult, error) {
	req.applyDefaults()
	ctx, span := tracer.Start(ctx, "sourcing.scrape")
	defer span.End()
	span.SetAttributes(
		attribute.String("sourcing.location", req.Location),
		attribute.String("sourcing.industry", req.Industry),
		attribute.Int("sourcing.limit", req.Limit),
	)

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("sourcing: load settings: %w", err)
	}
	dummy := !snap.ScraperLive()
	span.SetAttributes(attribute.Bool("sourcing.dummy", dummy))

	var businesses []Business
	if !dummy && s.searcher != nil {
		resp, err := s.searcher.Search(ctx, SearchRequest{
			Query:           req.Industry,
			Location:        req.Location,
			Limit:           req.Limit,
			BrightDataToken: snap.BrightDataToken(),
			Zone:            snap.BrightDataZone(),
		})
		if err != nil {
			span.RecordError(err)
			return ScrapeResult{}, err
		}
		businesses = resp.Businesses
		if len(businesses) > req.Limit {
			businesses = businesses[:req.Limit]
		}
	} else {
		if !dummy {
			s.logger.Warn("bright data token set but no scraper sidecar configured, using sample listings")
		}
		businesses = SampleBusinesses(req.Location, req.Industry, req.Limit)
	}

	res := ScrapeResult{InsertedIDs: []int64{}, Dummy: dummy}
	for _, b := range businesses {
		category := strings.TrimSpace(b.Category)
		if category == "" {
			category = req.Industry
		}
		lead, err := s.leads.Create(ctx, &leads.CreateLeadRequest{
			Name:     b.Name,
			Phone:    b.Phone,
			Category: category,
			Address:  strings.TrimSpace(b.Address),
			Website:  strings.TrimSpace(b.Website),
			Industry: req.Industry,
		})
		if err != nil {
			if leads.IsValidationError(err) {
				s.logger.Debug("skipping listing", "name", b.Name, "error", err)
				continue
			}
			return res, fmt.Errorf("sourcing: insert lead: %w", err)
		}
		res.InsertedIDs = append(res.InsertedIDs, lead.ID)
	}
	res.Count = len(res.InsertedIDs)

	if res.Count > 0 && s.crm != nil && s.crm.Configured(ctx) {
		sync, err := s.crm.SyncLeads(ctx, res.InsertedIDs)
		if err != nil {
			s.logger.Warn("zoho sync after scrape failed", "error", err)
		} else {
			s.logger.Info("scraped leads synced to zoho", "synced", len(sync.Synced), "failed", len(sync.Failed))
		}
	}

	s.logger.Info("scrape finished", "location", req.Location, "industry", req.Industry, "inserted", res.Count, "dummy", dummy)
	return res, nil
}
