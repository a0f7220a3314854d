// Package zoho talks to Zoho CRM: leads, meeting events and calendar free/busy.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

var tracer = otel.Tracer("outreach.internal.crm.zoho")

const (
	DefaultAccountsURL = "https://accounts.zoho.com"
	DefaultAPIURL      = "https://www.zohoapis.com"
)

var (
	// ErrNotConfigured is returned when the refresh-token credentials are incomplete.
	ErrNotConfigured = errors.New("zoho: not configured")
	// ErrNoRecordID is returned when a create call succeeds without an id.
	ErrNoRecordID = errors.New("zoho: response carried no record id")
)

// Credentials are the OAuth client and refresh token used to mint access tokens.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Complete reports whether a token exchange can be attempted.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// CredentialSource resolves the current credentials. Settings can change at
// runtime, so they are read on every call.
type CredentialSource func(ctx context.Context) (Credentials, error)

// StaticCredentials always returns c.
func StaticCredentials(c Credentials) CredentialSource {
	return func(context.Context) (Credentials, error) { return c, nil }
}

type cachedToken struct {
	refreshToken string
	accessToken  string
	expiresAt    time.Time
}

// Client is an HTTP client for the Zoho CRM and Calendar APIs.
type Client struct {
	accountsURL string
	apiURL      string
	creds       CredentialSource
	httpClient  *http.Client
	logger      *logging.Logger
	now         func() time.Time

	mu    sync.Mutex
	token cachedToken
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseURLs points the client at other accounts/API hosts (tests, EU data centre).
func WithBaseURLs(accountsURL, apiURL string) ClientOption {
	return func(c *Client) {
		c.accountsURL = strings.TrimRight(accountsURL, "/")
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// NewClient creates a Zoho client reading credentials from creds.
func NewClient(creds CredentialSource, opts ...ClientOption) *Client {
	c := &Client{
		accountsURL: DefaultAccountsURL,
		apiURL:      DefaultAPIURL,
		creds:       creds,
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		logger:      logging.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether credentials are currently complete.
func (c *Client) Configured(ctx context.Context) bool {
	if c == nil || c.creds == nil {
		return false
	}
	creds, err := c.creds(ctx)
	return err == nil && creds.Complete()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// AccessToken exchanges the refresh token, reusing the previous access token
// until a minute before it expires.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if c.creds == nil {
		return "", ErrNotConfigured
	}
	creds, err := c.creds(ctx)
	if err != nil {
		return "", fmt.Errorf("zoho: load credentials: %w", err)
	}
	if !creds.Complete() {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.refreshToken == creds.RefreshToken && c.token.accessToken != "" && c.now().Before(c.token.expiresAt) {
		return c.token.accessToken, nil
	}

	form := url.Values{}
	form.Set("refresh_token", creds.RefreshToken)
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountsURL+"/oauth/v2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("zoho: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("zoho: token request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("zoho: token exchange failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("zoho: decode token response: %w", err)
	}
	if parsed.Error != "" || parsed.AccessToken == "" {
		return "", fmt.Errorf("zoho: token exchange rejected: %s", parsed.Error)
	}

	ttl := time.Duration(parsed.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	c.token = cachedToken{
		refreshToken: creds.RefreshToken,
		accessToken:  parsed.AccessToken,
		expiresAt:    c.now().Add(ttl - time.Minute),
	}
	return parsed.AccessToken, nil
}

type recordEnvelope struct {
	Data []map[string]any `json:"data"`
}

type recordResult struct {
	Data []struct {
		Code    string `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
	} `json:"data"`
}

// do sends an authorized request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("zoho: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	endpoint := c.apiURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("zoho: create request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zoho: %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("zoho: %s %s returned status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("zoho: decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) writeRecord(ctx context.Context, method, path string, record map[string]any) (string, error) {
	var result recordResult
	if err := c.do(ctx, method, path, nil, recordEnvelope{Data: []map[string]any{record}}, &result); err != nil {
		return "", err
	}
	if len(result.Data) == 0 {
		return "", ErrNoRecordID
	}
	first := result.Data[0]
	if strings.EqualFold(first.Status, "error") {
		return "", fmt.Errorf("zoho: %s %s rejected: %s %s", method, path, first.Code, first.Message)
	}
	if first.Details.ID == "" {
		return "", ErrNoRecordID
	}
	return first.Details.ID, nil
}

// LeadRecord is the subset of a Zoho lead this service writes.
type LeadRecord struct {
	Company       string
	Phone         string
	Industry      string
	Address       string
	Website       string
	City          string
	State         string
	EmployeeCount int
}

func (l LeadRecord) fields() map[string]any {
	return map[string]any{
		"Company":     l.Company,
		"Phone":       l.Phone,
		"Industry":    l.Industry,
		"Address":     l.Address,
		"Website":     l.Website,
		"City":        l.City,
		"State":       l.State,
		"Description": fmt.Sprintf("Employee Count: %d", l.EmployeeCount),
		"Lead_Source": "AI Assistant",
	}
}

// CreateLead inserts a lead and returns its Zoho id.
func (c *Client) CreateLead(ctx context.Context, lead LeadRecord) (string, error) {
	ctx, span := tracer.Start(ctx, "crm.zoho.create_lead")
	defer span.End()

	id, err := c.writeRecord(ctx, http.MethodPost, "/crm/v2/Leads", lead.fields())
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("zoho.lead_id", id))
	c.logger.Info("zoho lead created", "zoho_id", id, "company", lead.Company)
	return id, nil
}

// Qualification is the outcome pushed onto an existing Zoho lead.
type Qualification struct {
	Qualified         bool
	UsesMobileDevices string
	EmployeeCount     int
	Notes             string
}

func (q Qualification) fields() map[string]any {
	status := "Not Qualified"
	if q.Qualified {
		status = "Qualified"
	}
	return map[string]any{
		"Description": fmt.Sprintf("Employee Count: %d\nUses Mobile Devices: %s\n\n%s", q.EmployeeCount, q.UsesMobileDevices, q.Notes),
		"Lead_Status": status,
		"$se_module":  "Leads",
	}
}

// UpdateLeadQualification sets Lead_Status and the description on a Zoho lead.
func (c *Client) UpdateLeadQualification(ctx context.Context, zohoID string, q Qualification) error {
	if zohoID == "" {
		return ErrNoRecordID
	}
	ctx, span := tracer.Start(ctx, "crm.zoho.update_lead")
	defer span.End()
	span.SetAttributes(attribute.String("zoho.lead_id", zohoID))

	if _, err := c.writeRecord(ctx, http.MethodPut, "/crm/v2/Leads/"+url.PathEscape(zohoID), q.fields()); err != nil && !errors.Is(err, ErrNoRecordID) {
		span.RecordError(err)
		return err
	}
	return nil
}

// Event is a 30 minute consultation on the CRM calendar.
type Event struct {
	LeadName   string
	ZohoLeadID string
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
	Medium     string
}

const eventLayout = "2006-01-02T15:04:05"

// Window returns the start and end timestamps in Zoho's local datetime format.
func (e Event) Window() (string, string, error) {
	start := fmt.Sprintf("%sT%s:00", e.Date, e.Time)
	t, err := time.Parse(eventLayout, start)
	if err != nil {
		return "", "", fmt.Errorf("zoho: invalid event time %q: %w", start, err)
	}
	return start, t.Add(30 * time.Minute).Format(eventLayout), nil
}

func (e Event) location() string {
	if e.Medium == "Phone" {
		return "Phone Call"
	}
	return "Zoom Meeting"
}

func (e Event) fields(full bool) (map[string]any, error) {
	start, end, err := e.Window()
	if err != nil {
		return nil, err
	}
	f := map[string]any{
		"Start_DateTime": start,
		"End_DateTime":   end,
		"Location":       e.location(),
	}
	if !full {
		return f, nil
	}
	f["Subject"] = "Meeting with " + e.LeadName
	f["Event_Title"] = "Mobile Solutions Consultation with " + e.LeadName
	if e.ZohoLeadID != "" {
		f["What_Id"] = e.ZohoLeadID
		f["$se_module"] = "Leads"
	}
	return f, nil
}

// CreateEvent books the meeting and returns the Zoho event id.
func (c *Client) CreateEvent(ctx context.Context, ev Event) (string, error) {
	fields, err := ev.fields(true)
	if err != nil {
		return "", err
	}
	ctx, span := tracer.Start(ctx, "crm.zoho.create_event")
	defer span.End()

	id, err := c.writeRecord(ctx, http.MethodPost, "/crm/v2/Events", fields)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("zoho.event_id", id))
	return id, nil
}

// UpdateEvent moves an existing event.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, ev Event) error {
	fields, err := ev.fields(false)
	if err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "crm.zoho.update_event")
	defer span.End()
	span.SetAttributes(attribute.String("zoho.event_id", eventID))

	if _, err := c.writeRecord(ctx, http.MethodPut, "/crm/v2/Events/"+url.PathEscape(eventID), fields); err != nil && !errors.Is(err, ErrNoRecordID) {
		span.RecordError(err)
		return err
	}
	return nil
}
