package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/outreach-ai-platform/internal/elevenlabs"
)

type stubCatalog struct {
	voices []elevenlabs.Voice
	err    error
}

func (s stubCatalog) ListVoices(context.Context, string) ([]elevenlabs.Voice, error) {
	return s.voices, s.err
}

func (s stubCatalog) GetVoice(_ context.Context, _ string, id string) (*elevenlabs.Voice, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, v := range s.voices {
		if v.VoiceID == id {
			return &v, nil
		}
	}
	return nil, errors.New("elevenlabs: voice not found")
}

func newTestHandler(env Bag, catalog VoiceCatalog) (*Handler, *Service) {
	svc := NewService(NewMemoryStore(), nil, WithEnv(env))
	return NewHandler(svc, NewMemoryVoiceStore(), catalog, nil), svc
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestConfigRoundTrip(t *testing.T) {
	h, _ := newTestHandler(Bag{}, nil)

	rec := httptest.NewRecorder()
	h.PostConfig(rec, httptest.NewRequest(http.MethodPost, "/config", strings.NewReader(`{"TEST_MODE":true,"TWILIO_ACCOUNT_SID":"AC9"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.GetConfig(rec, httptest.NewRequest(http.MethodGet, "/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var bag Bag
	decodeBody(t, rec, &bag)
	assert.Equal(t, true, bag[KeyTestMode])
	assert.Equal(t, "AC9", bag[KeyTwilioAccountSID])
	assert.Equal(t, DefaultCallbackURL, bag[KeyCallbackURL])
}

func TestPostConfigRejectsBadHours(t *testing.T) {
	h, _ := newTestHandler(Bag{}, nil)
	rec := httptest.NewRecorder()
	h.PostConfig(rec, httptest.NewRequest(http.MethodPost, "/config", strings.NewReader(`{"BUSINESS_HOURS":{"weekday_start":"nine"}}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSettingsRequiresBody(t *testing.T) {
	h, svc := newTestHandler(Bag{}, nil)

	rec := httptest.NewRecorder()
	h.UpdateSettings(rec, httptest.NewRequest(http.MethodPost, "/settings/update", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.UpdateSettings(rec, httptest.NewRequest(http.MethodPost, "/settings/update", strings.NewReader(`{"settings":{"DEFAULT_VOICE_ID":"voice3"}}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "voice3", snap.DefaultVoiceID())
}

func TestListVoices(t *testing.T) {
	h, _ := newTestHandler(Bag{}, stubCatalog{})
	rec := httptest.NewRecorder()
	h.ListVoices(rec, httptest.NewRequest(http.MethodGet, "/voices", nil))
	var voices []Voice
	decodeBody(t, rec, &voices)
	assert.Len(t, voices, len(BuiltinVoices))

	h, _ = newTestHandler(Bag{KeyElevenLabsAPIKey: "key"}, stubCatalog{voices: []elevenlabs.Voice{{VoiceID: "abc", Name: "Rachel"}}})
	rec = httptest.NewRecorder()
	h.ListVoices(rec, httptest.NewRequest(http.MethodGet, "/voices", nil))
	decodeBody(t, rec, &voices)
	require.Len(t, voices, 1)
	assert.Equal(t, "abc", voices[0].ID)

	h, _ = newTestHandler(Bag{KeyElevenLabsAPIKey: "key"}, stubCatalog{err: errors.New("boom")})
	rec = httptest.NewRecorder()
	h.ListVoices(rec, httptest.NewRequest(http.MethodGet, "/voices", nil))
	decodeBody(t, rec, &voices)
	assert.Len(t, voices, len(BuiltinVoices))
}

func TestSaveVoiceSettingsUpdatesDefault(t *testing.T) {
	h, svc := newTestHandler(Bag{}, nil)

	rec := httptest.NewRecorder()
	h.SaveVoiceSettings(rec, httptest.NewRequest(http.MethodPost, "/voice/settings",
		strings.NewReader(`{"voice_id":"voice2","voice_name":"Professional Female","pitch":1.1,"speed":0.9,"stability":0.7,"is_default":1}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "voice2", snap.DefaultVoiceID())

	rec = httptest.NewRecorder()
	h.ListVoiceSettings(rec, httptest.NewRequest(http.MethodGet, "/voice/settings", nil))
	var list []VoiceSetting
	decodeBody(t, rec, &list)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsDefault)

	rec = httptest.NewRecorder()
	h.SaveVoiceSettings(rec, httptest.NewRequest(http.MethodPost, "/voice/settings", strings.NewReader(`{"pitch":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoiceCheck(t *testing.T) {
	h, _ := newTestHandler(Bag{}, nil)
	rec := httptest.NewRecorder()
	h.VoiceCheck(rec, httptest.NewRequest(http.MethodGet, "/voice_check", nil))
	var res VoiceCheckResult
	decodeBody(t, rec, &res)
	assert.Equal(t, VoiceUnconfigured, res.Status)
	assert.True(t, res.DummyMode)

	catalog := stubCatalog{voices: []elevenlabs.Voice{{VoiceID: "abc", Name: "Rachel"}}}
	h, _ = newTestHandler(Bag{KeyElevenLabsAPIKey: "key", KeyElevenLabsVoiceID: "abc"}, catalog)
	rec = httptest.NewRecorder()
	h.VoiceCheck(rec, httptest.NewRequest(http.MethodGet, "/voice_check", nil))
	decodeBody(t, rec, &res)
	assert.Equal(t, VoiceWorking, res.Status)
	assert.True(t, res.TestSuccessful)
	assert.Equal(t, "Rachel", res.VoiceName)
	assert.True(t, res.Credentials["elevenlabs"])

	h, _ = newTestHandler(Bag{KeyElevenLabsAPIKey: "key", KeyElevenLabsVoiceID: "missing"}, catalog)
	rec = httptest.NewRecorder()
	h.VoiceCheck(rec, httptest.NewRequest(http.MethodGet, "/voice_check", nil))
	res = VoiceCheckResult{}
	decodeBody(t, rec, &res)
	assert.Equal(t, VoiceWorking, res.Status)
	assert.False(t, res.TestSuccessful)
	assert.NotEmpty(t, res.TestError)
}
