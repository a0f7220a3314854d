// Package elevenlabs lists and inspects voices on the ElevenLabs API.
package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// ErrMissingAPIKey is returned when a call is made without credentials.
var ErrMissingAPIKey = errors.New("elevenlabs: api key is required")

// Voice is a voice available to the account.
type Voice struct {
	VoiceID    string            `json:"voice_id"`
	Name       string            `json:"name"`
	Category   string            `json:"category,omitempty"`
	PreviewURL string            `json:"preview_url,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

// Client talks to the ElevenLabs REST API. The API key is passed per call
// because it lives in the editable settings bag.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOption configures a Client.
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

// NewClient creates a client for baseURL (https://api.elevenlabs.io).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListVoices returns every voice on the account.
func (c *Client) ListVoices(ctx context.Context, apiKey string) ([]Voice, error) {
	var out voicesResponse
	if err := c.get(ctx, apiKey, "/v1/voices", &out); err != nil {
		return nil, err
	}
	c.logger.Debug("elevenlabs voices listed", "count", len(out.Voices))
	return out.Voices, nil
}

// GetVoice fetches a single voice by id.
func (c *Client) GetVoice(ctx context.Context, apiKey, voiceID string) (*Voice, error) {
	if strings.TrimSpace(voiceID) == "" {
		return nil, fmt.Errorf("elevenlabs: voice id is required")
	}
	var v Voice
	if err := c.get(ctx, apiKey, "/v1/voices/"+url.PathEscape(voiceID), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) get(ctx context.Context, apiKey, path string, dst any) error {
	if strings.TrimSpace(apiKey) == "" {
		return ErrMissingAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("elevenlabs: %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("elevenlabs: decode response: %w", err)
	}
	return nil
}
