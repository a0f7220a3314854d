package zoho

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// LeadStore is the part of the lead repository the syncer needs.
type LeadStore interface {
	List(ctx context.Context, filter leads.ListFilter) ([]*leads.Lead, error)
	SetZohoID(ctx context.Context, id int64, zohoID string) error
}

// SyncResult reports a batch lead push.
type SyncResult struct {
	Synced []int64 `json:"synced"`
	Failed []int64 `json:"failed"`
}

// Syncer mirrors local leads into the CRM and records the returned ids.
type Syncer struct {
	client *Client
	leads  LeadStore
	logger *logging.Logger
}

// NewSyncer wires a Syncer.
func NewSyncer(client *Client, store LeadStore, logger *logging.Logger) *Syncer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Syncer{client: client, leads: store, logger: logger}
}

// Configured reports whether CRM calls can be made right now.
func (s *Syncer) Configured(ctx context.Context) bool {
	return s != nil && s.client.Configured(ctx)
}

// RecordFor maps a lead onto the CRM lead fields.
func RecordFor(l *leads.Lead) LeadRecord {
	industry := l.Industry
	if industry == "" {
		industry = l.Category
	}
	return LeadRecord{
		Company:       l.Name,
		Phone:         l.Phone,
		Industry:      industry,
		Address:       l.Address,
		Website:       l.Website,
		City:          l.City,
		State:         l.State,
		EmployeeCount: l.EmployeeCount,
	}
}

// SyncLeads pushes the given leads (or every unsynced lead when ids is empty).
// Leads that already carry a Zoho id are skipped.
func (s *Syncer) SyncLeads(ctx context.Context, ids []int64) (SyncResult, error) {
	res := SyncResult{Synced: []int64{}, Failed: []int64{}}
	if !s.Configured(ctx) {
		return res, ErrNotConfigured
	}

	list, err := s.leads.List(ctx, leads.ListFilter{IDs: ids, UnsyncedOnly: true})
	if err != nil {
		return res, fmt.Errorf("zoho: list leads: %w", err)
	}

	for _, l := range list {
		zohoID, err := s.client.CreateLead(ctx, RecordFor(l))
		if err == nil {
			err = s.leads.SetZohoID(ctx, l.ID, zohoID)
		}
		if err != nil {
			if errors.Is(err, ErrNotConfigured) {
				return res, err
			}
			s.logger.Warn("zoho lead sync failed", "lead_id", l.ID, "error", err)
			res.Failed = append(res.Failed, l.ID)
			continue
		}
		res.Synced = append(res.Synced, l.ID)
	}
	s.logger.Info("zoho lead sync finished", "synced", len(res.Synced), "failed", len(res.Failed))
	return res, nil
}

// SyncQualification pushes a qualification decision for a linked lead.
func (s *Syncer) SyncQualification(ctx context.Context, l *leads.Lead) error {
	if l == nil || l.ZohoID == "" || !s.Configured(ctx) {
		return nil
	}
	return s.client.UpdateLeadQualification(ctx, l.ZohoID, Qualification{
		Qualified:         l.QualificationStatus == leads.QualificationQualified,
		UsesMobileDevices: l.UsesMobileDevices,
		EmployeeCount:     l.EmployeeCount,
		Notes:             l.Notes,
	})
}

// SyncRequest is the body of POST /zoho/sync.
type SyncRequest struct {
	LeadIDs []int64 `json:"lead_ids"`
}

// HandleSync handles POST /zoho/sync.
func (s *Syncer) HandleSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.SyncLeads(r.Context(), req.LeadIDs)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			respond.Error(w, http.StatusBadRequest, "Zoho is not configured")
			return
		}
		s.logger.Error("zoho sync failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "zoho sync failed")
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
