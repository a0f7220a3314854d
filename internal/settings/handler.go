package settings

import (
	"context"
	"errors"
	"net/http"

	"github.com/wolfman30/outreach-ai-platform/internal/elevenlabs"
	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// VoiceCatalog lists provider voices.
type VoiceCatalog interface {
	ListVoices(ctx context.Context, apiKey string) ([]elevenlabs.Voice, error)
	GetVoice(ctx context.Context, apiKey, voiceID string) (*elevenlabs.Voice, error)
}

// Handler serves configuration and voice endpoints.
type Handler struct {
	service *Service
	voices  VoiceStore
	catalog VoiceCatalog
	logger  *logging.Logger
}

func NewHandler(service *Service, voices VoiceStore, catalog VoiceCatalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if voices == nil {
		voices = NewMemoryVoiceStore()
	}
	return &Handler{service: service, voices: voices, catalog: catalog, logger: logger}
}

// GetConfig handles GET /config and GET /settings.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	bag, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respond.JSON(w, http.StatusOK, bag)
}

// PostConfig handles POST /config: the body is merged into the stored bag.
func (h *Handler) PostConfig(w http.ResponseWriter, r *http.Request) {
	var patch Bag
	if err := respond.Decode(r, &patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.update(w, r, patch)
}

type settingsUpdateRequest struct {
	Settings Bag `json:"settings"`
}

// UpdateSettings handles POST /settings/update {"settings":{...}}.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Settings) == 0 {
		respond.Error(w, http.StatusBadRequest, "settings is required")
		return
	}
	h.update(w, r, req.Settings)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, patch Bag) {
	if _, err := h.service.Update(r.Context(), patch); err != nil {
		if errors.Is(err, ErrInvalidBusinessHours) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to save settings", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ListVoices handles GET /voices.
func (h *Handler) ListVoices(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respond.JSON(w, http.StatusOK, h.availableVoices(r.Context(), snap))
}

func (h *Handler) availableVoices(ctx context.Context, snap Snapshot) []Voice {
	if h.catalog == nil || snap.ElevenLabsAPIKey() == "" {
		return BuiltinVoices
	}
	remote, err := h.catalog.ListVoices(ctx, snap.ElevenLabsAPIKey())
	if err != nil {
		h.logger.Warn("elevenlabs voices unavailable, serving built-in catalogue", "error", err)
		return BuiltinVoices
	}
	out := make([]Voice, 0, len(remote))
	for _, v := range remote {
		out = append(out, Voice{ID: v.VoiceID, Name: v.Name, Category: v.Category, PreviewURL: v.PreviewURL})
	}
	return out
}

// ListVoiceSettings handles GET /voice/settings.
func (h *Handler) ListVoiceSettings(w http.ResponseWriter, r *http.Request) {
	list, err := h.voices.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list voice settings", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list voice settings")
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// SaveVoiceSettings handles POST /voice/settings.
func (h *Handler) SaveVoiceSettings(w http.ResponseWriter, r *http.Request) {
	var req VoiceSettingRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	setting, err := req.Setting()
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.voices.Upsert(r.Context(), setting)
	if err != nil {
		h.logger.Error("failed to save voice settings", "voice_id", setting.VoiceID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to save voice settings")
		return
	}
	if saved.IsDefault {
		if _, err := h.service.Update(r.Context(), Bag{KeyDefaultVoiceID: saved.VoiceID}); err != nil {
			h.logger.Error("failed to record default voice", "voice_id", saved.VoiceID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to save voice settings")
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"status": "updated", "voice": saved})
}

// VoiceCheckResult is the body of GET /voice_check.
type VoiceCheckResult struct {
	Status         string          `json:"status"`
	VoiceID        string          `json:"voice_id,omitempty"`
	VoiceName      string          `json:"voice_name,omitempty"`
	TestSuccessful bool            `json:"test_successful"`
	TestError      string          `json:"test_error,omitempty"`
	Message        string          `json:"message,omitempty"`
	DummyMode      bool            `json:"dummy_mode"`
	Credentials    map[string]bool `json:"credentials"`
}

// Voice check statuses.
const (
	VoiceWorking      = "working"
	VoiceUnconfigured = "unconfigured"
	VoiceError        = "error"
)

// VoiceCheck handles GET /voice_check.
func (h *Handler) VoiceCheck(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		respond.JSON(w, http.StatusOK, VoiceCheckResult{Status: VoiceError, Message: "settings unavailable"})
		return
	}
	respond.JSON(w, http.StatusOK, h.checkVoice(r.Context(), snap))
}

func (h *Handler) checkVoice(ctx context.Context, snap Snapshot) VoiceCheckResult {
	res := VoiceCheckResult{
		DummyMode: snap.DummyCalls(),
		Credentials: map[string]bool{
			"twilio":     snap.TwilioAccountSID() != "" && snap.TwilioAuthToken() != "",
			"elevenlabs": snap.ElevenLabsAPIKey() != "",
			"llm":        snap.LLMConfigured(),
			"zoho":       snap.ZohoConfigured(),
		},
	}
	voiceID := snap.ElevenLabsVoiceID()
	if snap.ElevenLabsAPIKey() == "" || voiceID == "" {
		res.Status = VoiceUnconfigured
		res.Message = "ElevenLabs API key and voice id are required"
		return res
	}
	res.Status = VoiceWorking
	res.VoiceID = voiceID
	if h.catalog == nil {
		res.TestError = "voice catalogue not wired"
		return res
	}
	v, err := h.catalog.GetVoice(ctx, snap.ElevenLabsAPIKey(), voiceID)
	if err != nil {
		res.TestError = err.Error()
		return res
	}
	res.VoiceName = v.Name
	res.TestSuccessful = true
	return res
}
