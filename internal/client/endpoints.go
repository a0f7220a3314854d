package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wolfman30/outreach-ai-platform/internal/analytics"
	"github.com/wolfman30/outreach-ai-platform/internal/appointments"
	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/crm/zoho"
	"github.com/wolfman30/outreach-ai-platform/internal/dialer"
	"github.com/wolfman30/outreach-ai-platform/internal/followups"
	"github.com/wolfman30/outreach-ai-platform/internal/history"
	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/learning"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
	"github.com/wolfman30/outreach-ai-platform/internal/sourcing"
)

// LeadQuery selects leads server side. Zero fields are omitted.
type LeadQuery struct {
	Status        string
	Qualification string
	Industry      string
	Search        string
	Sort          string
	Desc          bool
	Page          int
	PageSize      int
}

func (q LeadQuery) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("status", q.Status)
	set("qualification", q.Qualification)
	set("industry", q.Industry)
	set("q", q.Search)
	set("sort", q.Sort)
	if q.Sort != "" && q.Desc {
		v.Set("order", "desc")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// ListLeads calls GET /leads. Page is ignored; use LeadPage for envelopes.
func (c *Client) ListLeads(ctx context.Context, q LeadQuery) ([]*leads.Lead, error) {
	q.Page, q.PageSize = 0, 0
	var out []*leads.Lead
	if err := c.do(ctx, http.MethodGet, "/leads", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LeadPage calls GET /leads with a page parameter and returns the envelope.
func (c *Client) LeadPage(ctx context.Context, q LeadQuery) (*leads.Page, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	var out leads.Page
	if err := c.do(ctx, http.MethodGet, "/leads", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateLead(ctx context.Context, req leads.CreateLeadRequest) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/leads", nil, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdateLead(ctx context.Context, id int64, req leads.UpdateLeadRequest) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/leads/%d", id), nil, req, &statusResponse{})
}

// DeleteLeads removes the given leads and returns how many were deleted.
// A single id uses DELETE /leads/{id}.
func (c *Client) DeleteLeads(ctx context.Context, ids ...int64) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	var err error
	if len(ids) == 1 {
		err = c.do(ctx, http.MethodDelete, fmt.Sprintf("/leads/%d", ids[0]), nil, nil, &out)
	} else {
		err = c.do(ctx, http.MethodDelete, "/leads", nil, leads.BulkDeleteRequest{LeadIDs: ids}, &out)
	}
	return out.Deleted, err
}

// QualifyLead returns the resulting qualification status.
func (c *Client) QualifyLead(ctx context.Context, id int64, req leads.QualifyRequest) (string, error) {
	var out struct {
		QualificationStatus string `json:"qualification_status"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/qualify/%d", id), nil, req, &out); err != nil {
		return "", err
	}
	return out.QualificationStatus, nil
}

// ExportLeads streams GET /leads/export into w and returns the server's filename.
func (c *Client) ExportLeads(ctx context.Context, format string, q LeadQuery, w io.Writer) (string, error) {
	q.Page, q.PageSize = 0, 0
	values := q.values()
	values.Set("format", format)
	resp, err := c.send(ctx, http.MethodGet, "/leads/export", values, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("client: read export: %w", err)
	}
	return filenameFrom(resp.Header.Get("Content-Disposition")), nil
}

func (c *Client) LeadHistory(ctx context.Context, id int64) (*history.History, error) {
	var out history.History
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lead_history/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Scrape(ctx context.Context, req sourcing.ScrapeRequest) (*sourcing.ScrapeResult, error) {
	var out sourcing.ScrapeResult
	if err := c.do(ctx, http.MethodPost, "/scrape", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Call(ctx context.Context, req dialer.CallRequest) (*dialer.CallResult, error) {
	var out dialer.CallResult
	if err := c.do(ctx, http.MethodPost, "/call", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AutoDial(ctx context.Context, ids []int64) (*dialer.AutoDialResult, error) {
	var out dialer.AutoDialResult
	if err := c.do(ctx, http.MethodPost, "/auto_dial", nil, dialer.AutoDialRequest{LeadIDs: ids}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BusinessHours(ctx context.Context) (*hours.Status, error) {
	var out hours.Status
	if err := c.do(ctx, http.MethodGet, "/check_business_hours", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCallLog(ctx context.Context, req calllogs.CreateRequest) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/call_logs", nil, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// CallLogs returns a lead's logs newest first.
func (c *Client) CallLogs(ctx context.Context, leadID int64) ([]*calllogs.CallLog, error) {
	var out []*calllogs.CallLog
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/call_logs/%d", leadID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CallSummary aggregates the last days of calls; days <= 0 uses the server default.
func (c *Client) CallSummary(ctx context.Context, days int) (*calllogs.Summary, error) {
	var query url.Values
	if days > 0 {
		query = url.Values{"days": {strconv.Itoa(days)}}
	}
	var out calllogs.Summary
	if err := c.do(ctx, http.MethodGet, "/call_logs/summary", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FollowUps(ctx context.Context, status string, leadID int64) ([]*followups.FollowUp, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if leadID > 0 {
		query.Set("lead_id", strconv.FormatInt(leadID, 10))
	}
	var out []*followups.FollowUp
	if err := c.do(ctx, http.MethodGet, "/follow_ups", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateFollowUp(ctx context.Context, req followups.CreateRequest) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/follow_ups", nil, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdateFollowUp(ctx context.Context, id int64, req followups.UpdateRequest) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/follow_ups/%d", id), nil, req, &statusResponse{})
}

// AutoFollowUp dispatches up to maxCalls due follow-ups; maxCalls <= 0 uses the server default.
func (c *Client) AutoFollowUp(ctx context.Context, maxCalls int) (*followups.Result, error) {
	var body any
	if maxCalls > 0 {
		body = followups.AutoFollowUpRequest{MaxCalls: maxCalls}
	}
	var out followups.Result
	if err := c.do(ctx, http.MethodPost, "/auto_follow_up", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Appointments(ctx context.Context) ([]*appointments.Appointment, error) {
	var out []*appointments.Appointment
	if err := c.do(ctx, http.MethodGet, "/appointments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, req appointments.CreateRequest) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/appointments", nil, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id int64, req appointments.UpdateRequest) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/appointments/%d", id), nil, req, &statusResponse{})
}

// Availability lists the open "HH:MM" slots on date (YYYY-MM-DD).
func (c *Client) Availability(ctx context.Context, date string) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/availability", url.Values{"date": {date}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Config(ctx context.Context) (settings.Bag, error) {
	var out settings.Bag
	if err := c.do(ctx, http.MethodGet, "/config", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveConfig merges patch into the stored settings.
func (c *Client) SaveConfig(ctx context.Context, patch settings.Bag) error {
	return c.do(ctx, http.MethodPost, "/config", nil, patch, &statusResponse{})
}

// UpdateSettings posts {"settings": patch} to /settings/update.
func (c *Client) UpdateSettings(ctx context.Context, patch settings.Bag) error {
	body := map[string]settings.Bag{"settings": patch}
	return c.do(ctx, http.MethodPost, "/settings/update", nil, body, &statusResponse{})
}

func (c *Client) Voices(ctx context.Context) ([]settings.Voice, error) {
	var out []settings.Voice
	if err := c.do(ctx, http.MethodGet, "/voices", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) VoiceSettings(ctx context.Context) ([]*settings.VoiceSetting, error) {
	var out []*settings.VoiceSetting
	if err := c.do(ctx, http.MethodGet, "/voice/settings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveVoiceSettings(ctx context.Context, req settings.VoiceSettingRequest) (*settings.VoiceSetting, error) {
	var out struct {
		Voice settings.VoiceSetting `json:"voice"`
	}
	if err := c.do(ctx, http.MethodPost, "/voice/settings", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Voice, nil
}

func (c *Client) VoiceCheck(ctx context.Context) (*settings.VoiceCheckResult, error) {
	var out settings.VoiceCheckResult
	if err := c.do(ctx, http.MethodGet, "/voice_check", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Patterns(ctx context.Context) (*learning.Patterns, error) {
	var out learning.Patterns
	if err := c.do(ctx, http.MethodGet, "/ai/patterns", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Learn(ctx context.Context, req learning.LearnRequest) (*learning.LearnResult, error) {
	var out learning.LearnResult
	if err := c.do(ctx, http.MethodPost, "/analytics/learn", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard returns the analytics totals; days <= 0 uses the server default.
func (c *Client) Dashboard(ctx context.Context, days int) (*analytics.Dashboard, error) {
	var query url.Values
	if days > 0 {
		query = url.Values{"days": {strconv.Itoa(days)}}
	}
	var out analytics.Dashboard
	if err := c.do(ctx, http.MethodGet, "/analytics/dashboard", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ZohoSync pushes the given leads, or every unsynced lead when ids is empty.
func (c *Client) ZohoSync(ctx context.Context, ids []int64) (*zoho.SyncResult, error) {
	var out zoho.SyncResult
	if err := c.do(ctx, http.MethodPost, "/zoho/sync", nil, zoho.SyncRequest{LeadIDs: ids}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func filenameFrom(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
