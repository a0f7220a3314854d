package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

const DefaultBaseURL = "https://api.twilio.com"

var tracer = otel.Tracer("outreach.internal.twilio")

// ErrMissingCredentials is returned when the account SID or auth token is empty.
var ErrMissingCredentials = errors.New("twilio: credentials missing")

// Credentials authenticate against one Twilio account.
type Credentials struct {
	AccountSID string
	AuthToken  string
}

// CallRequest describes an outbound call.
type CallRequest struct {
	To             string
	From           string
	URL            string
	StatusCallback string
	Record         bool
}

// Call is the subset of Twilio's call resource the dialer reads.
type Call struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Client places calls through the Twilio REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	attempts   int
	backoff    func() time.Duration
}

// Option customizes the client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			cl.baseURL = u
		}
	}
}

// WithBackoff overrides the pause between attempts.
func WithBackoff(fn func() time.Duration) Option {
	return func(cl *Client) {
		if fn != nil {
			cl.backoff = fn
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.Default(),
		attempts:   3,
		backoff: func() time.Duration {
			return time.Duration(200+rand.Intn(300)) * time.Millisecond
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateCall starts an outbound call, retrying transport errors, 429s and 5xxs.
func (c *Client) CreateCall(ctx context.Context, creds Credentials, req CallRequest) (*Call, error) {
	if creds.AccountSID == "" || creds.AuthToken == "" {
		return nil, ErrMissingCredentials
	}
	if req.To == "" || req.From == "" || req.URL == "" {
		return nil, errors.New("twilio: to, from and url are required")
	}

	ctx, span := tracer.Start(ctx, "twilio.calls.create")
	defer span.End()
	span.SetAttributes(attribute.String("outreach.to", req.To))

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Url", req.URL)
	if req.StatusCallback != "" {
		form.Set("StatusCallback", req.StatusCallback)
		for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
			form.Add("StatusCallbackEvent", ev)
		}
	}
	if req.Record {
		form.Set("Record", "true")
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, url.PathEscape(creds.AccountSID))

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		call, retry, err := c.post(ctx, creds, endpoint, form)
		if err == nil {
			span.SetAttributes(attribute.String("outreach.call_sid", call.SID))
			c.logger.Info("twilio call created", "call_sid", call.SID, "to", req.To, "status", call.Status)
			return call, nil
		}
		lastErr = err
		if !retry || attempt == c.attempts {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = c.attempts
		case <-time.After(c.backoff()):
		}
	}
	span.RecordError(lastErr)
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, creds Credentials, endpoint string, form url.Values) (*Call, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, false, err
	}
	req.SetBasicAuth(creds.AccountSID, creds.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("twilio: create call: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("twilio: create call failed: %s", formatError(resp.StatusCode, body))
	}
	var call Call
	if err := json.Unmarshal(body, &call); err != nil {
		return nil, false, fmt.Errorf("twilio: decode call: %w", err)
	}
	if call.SID == "" {
		return nil, false, errors.New("twilio: response missing call sid")
	}
	return &call, false, nil
}

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed apiError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
