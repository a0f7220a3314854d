// Package sourcing finds new businesses to call, either through the scraper
// sidecar (backed by Bright Data) or a deterministic sample generator.
package sourcing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Business is one listing returned by a source.
type Business struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Category string `json:"category"`
	Address  string `json:"address"`
	Website  string `json:"website,omitempty"`
}

// SearchRequest asks the sidecar for businesses of an industry near a location.
type SearchRequest struct {
	Query           string `json:"query"`
	Location        string `json:"location"`
	Limit           int    `json:"limit"`
	BrightDataToken string `json:"brightDataToken"`
	Zone            string `json:"zone,omitempty"`
	Timeout         int    `json:"timeout,omitempty"` // milliseconds, default 60000
}

// SearchResponse is the sidecar's answer.
type SearchResponse struct {
	Success    bool       `json:"success"`
	Businesses []Business `json:"businesses"`
	ScrapedAt  string     `json:"scrapedAt"`
	Error      string     `json:"error,omitempty"`
}

// HealthResponse is the health check response from the sidecar.
type HealthResponse struct {
	Status  string `json:"status"` // ok, degraded, error
	Version string `json:"version"`
	Uptime  int    `json:"uptime"` // seconds
}

// SidecarSecretHeader carries the shared secret when one is configured.
const SidecarSecretHeader = "X-Sidecar-Secret"

// Client is an HTTP client for the scraper sidecar.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     *logging.Logger
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
		c.logger = logger
	}
}

// WithSecret sends the shared secret on every request.
func WithSecret(secret string) ClientOption {
	return func(c *Client) {
		c.secret = secret
	}
}

// NewClient creates a sidecar client. baseURL is e.g. "http://localhost:3000".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logging.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Health checks the health of the sidecar.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, fmt.Errorf("sourcing: create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sourcing: health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sourcing: health check failed with status %d: %s", resp.StatusCode, string(body))
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("sourcing: decode health response: %w", err)
	}
	return &health, nil
}

// Search fetches business listings.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Timeout == 0 {
		req.Timeout = 60000
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("sourcing: marshal request: %w", err)
	}

	c.logger.Debug("searching businesses", "query", req.Query, "location", req.Location, "limit", req.Limit)

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/v1/businesses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sourcing: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sourcing: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sourcing: search failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("sourcing: decode response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("sourcing: search failed: %s", result.Error)
	}

	c.logger.Info("businesses fetched", "query", req.Query, "location", req.Location, "count", len(result.Businesses))
	return &result, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.secret != "" {
		req.Header.Set(SidecarSecretHeader, c.secret)
	}
	return req, nil
}
