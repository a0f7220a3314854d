package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creds = Credentials{AccountSID: "AC123", AuthToken: "secret"}

func noBackoff() time.Duration { return 0 }

func TestCreateCallPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Calls.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550100", r.PostForm.Get("To"))
		assert.Equal(t, "+15550199", r.PostForm.Get("From"))
		assert.Equal(t, "https://example.com/webhook/voice?lead_id=4", r.PostForm.Get("Url"))
		assert.Equal(t, "https://example.com/webhook/status?lead_id=4", r.PostForm.Get("StatusCallback"))
		assert.Len(t, r.PostForm["StatusCallbackEvent"], 4)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"CA42","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithBackoff(noBackoff))
	call, err := c.CreateCall(context.Background(), creds, CallRequest{
		To:             "+15550100",
		From:           "+15550199",
		URL:            "https://example.com/webhook/voice?lead_id=4",
		StatusCallback: "https://example.com/webhook/status?lead_id=4",
	})
	require.NoError(t, err)
	assert.Equal(t, "CA42", call.SID)
	assert.Equal(t, "queued", call.Status)
}

func TestCreateCallRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"sid":"CA1","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithBackoff(noBackoff))
	call, err := c.CreateCall(context.Background(), creds, CallRequest{To: "1", From: "2", URL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, "CA1", call.SID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestCreateCallDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithBackoff(noBackoff))
	_, err := c.CreateCall(context.Background(), creds, CallRequest{To: "bogus", From: "2", URL: "http://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400 code 21211")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCreateCallRequiresCredentials(t *testing.T) {
	_, err := NewClient().CreateCall(context.Background(), Credentials{}, CallRequest{To: "1", From: "2", URL: "http://x"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "status 500", formatError(500, nil))
	assert.Equal(t, "status 401: Authenticate", formatError(401, []byte(`{"message":"Authenticate"}`)))
	assert.Equal(t, "status 502: bad gateway", formatError(502, []byte("bad gateway\n")))
}

func TestValidateSignature(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}, "CallStatus": {"busy"}}
	webhookURL := "https://example.com/webhook/status?lead_id=4"

	req := httptest.NewRequest(http.MethodPost, "/webhook/status?lead_id=4", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(SignatureHeader, Sign("secret", webhookURL, form))
	assert.True(t, ValidateSignature(req, "secret", webhookURL))

	req = httptest.NewRequest(http.MethodPost, "/webhook/status?lead_id=4", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(SignatureHeader, Sign("other", webhookURL, form))
	assert.False(t, ValidateSignature(req, "secret", webhookURL))

	req = httptest.NewRequest(http.MethodPost, "/webhook/status", nil)
	assert.False(t, ValidateSignature(req, "secret", webhookURL))
}

func TestSignaturePayloadSortsKeys(t *testing.T) {
	got := signaturePayload("https://x/y", url.Values{"b": {"2"}, "a": {"1"}})
	assert.Equal(t, "https://x/ya1b2", got)
}

func TestRequestURLHonoursProxyHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/webhook/voice?lead_id=1", nil)
	req.Host = "internal:5001"
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "calls.example.com")
	assert.Equal(t, "https://calls.example.com/webhook/voice?lead_id=1", RequestURL(req))
}

func TestTwiMLRendering(t *testing.T) {
	doc := (&Response{}).Add(
		SpeechGather("Hi & welcome", "Polly.Joanna", "/webhook/response?lead_id=1"),
		&Say{Text: "Are you still there?"},
		&Hangup{},
	)
	body, err := doc.Marshal()
	require.NoError(t, err)
	s := string(body)
	assert.True(t, strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, s, `<Gather input="speech" action="/webhook/response?lead_id=1" method="POST" speechTimeout="auto" language="en-US"><Say voice="Polly.Joanna">Hi &amp; welcome</Say></Gather>`)
	assert.Contains(t, s, `<Say>Are you still there?</Say><Hangup></Hangup></Response>`)
}
