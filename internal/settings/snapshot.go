package settings

import "strings"

// Snapshot is a read-only view of the merged bag taken for one operation.
type Snapshot struct {
	bag Bag
}

// NewSnapshot wraps a merged bag.
func NewSnapshot(b Bag) Snapshot {
	return Snapshot{bag: b.Clone()}
}

func (s Snapshot) Bag() Bag { return s.bag.Clone() }

func (s Snapshot) TwilioAccountSID() string  { return s.bag.String(KeyTwilioAccountSID) }
func (s Snapshot) TwilioAuthToken() string   { return s.bag.String(KeyTwilioAuthToken) }
func (s Snapshot) TwilioPhoneNumber() string { return s.bag.String(KeyTwilioPhoneNumber) }
func (s Snapshot) ElevenLabsAPIKey() string  { return s.bag.String(KeyElevenLabsAPIKey) }
func (s Snapshot) ElevenLabsVoiceID() string { return s.bag.String(KeyElevenLabsVoiceID) }
func (s Snapshot) LLMAPIKey() string         { return s.bag.String(KeyLLMAPIKey) }
func (s Snapshot) BrightDataToken() string   { return s.bag.String(KeyBrightDataToken) }
func (s Snapshot) BrightDataZone() string    { return s.bag.String(KeyBrightDataZone) }
func (s Snapshot) ZohoOrgID() string         { return s.bag.String(KeyZohoOrgID) }
func (s Snapshot) ZohoClientID() string      { return s.bag.String(KeyZohoClientID) }
func (s Snapshot) ZohoClientSecret() string  { return s.bag.String(KeyZohoClientSecret) }
func (s Snapshot) ZohoRefreshToken() string  { return s.bag.String(KeyZohoRefreshToken) }
func (s Snapshot) APIKey() string            { return s.bag.String(KeyAPIKey) }
func (s Snapshot) TestMode() bool            { return s.bag.Bool(KeyTestMode) }
func (s Snapshot) RecordingEnabled() bool    { return s.bag.Bool(KeyRecordingEnabled) }
func (s Snapshot) AutoQualification() bool   { return s.bag.Bool(KeyAutoQualification) }

// CallbackURL is the public webhook base without a trailing slash.
func (s Snapshot) CallbackURL() string {
	v := strings.TrimRight(s.bag.String(KeyCallbackURL), "/")
	if v == "" {
		return DefaultCallbackURL
	}
	return v
}

func (s Snapshot) AppointmentLink() string {
	if v := s.bag.String(KeyAppointmentLink); v != "" {
		return v
	}
	return DefaultAppointmentLink
}

func (s Snapshot) DefaultVoiceID() string {
	if v := s.bag.String(KeyDefaultVoiceID); v != "" {
		return v
	}
	return DefaultVoiceIdentifier
}

// LLMProvider is "gemini" (keyed by LLM_API_KEY) or "bedrock" (process AWS
// credentials).
func (s Snapshot) LLMProvider() string {
	if v := strings.ToLower(s.bag.String(KeyLLMProvider)); v != "" {
		return v
	}
	return DefaultLLMProvider
}

// LLMConfigured reports whether the selected provider has what it needs.
// Bedrock needs nothing from the bag.
func (s Snapshot) LLMConfigured() bool {
	return s.LLMProvider() == "bedrock" || s.LLMAPIKey() != ""
}

// DummyCalls reports whether calls are simulated: test mode, or any of the
// Twilio, ElevenLabs and LLM credentials missing.
func (s Snapshot) DummyCalls() bool {
	return s.TestMode() ||
		s.TwilioAccountSID() == "" ||
		s.ElevenLabsAPIKey() == "" ||
		!s.LLMConfigured()
}

// ZohoConfigured reports whether the OAuth refresh flow can run.
func (s Snapshot) ZohoConfigured() bool {
	return s.ZohoRefreshToken() != "" && s.ZohoClientID() != "" && s.ZohoClientSecret() != ""
}

// ScraperLive reports whether Bright Data credentials are present.
func (s Snapshot) ScraperLive() bool {
	return s.BrightDataToken() != ""
}
