package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Voice is an entry of GET /voices.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// BuiltinVoices is served when no ElevenLabs key is configured.
var BuiltinVoices = []Voice{
	{ID: "voice1", Name: "Professional Male", Description: "Clear, confident business voice"},
	{ID: "voice2", Name: "Professional Female", Description: "Warm, articulate business voice"},
	{ID: "voice3", Name: "Friendly Male", Description: "Relaxed, conversational tone"},
	{ID: "voice4", Name: "Friendly Female", Description: "Upbeat, approachable tone"},
	{ID: "voice5", Name: "Sales Expert Male", Description: "Energetic, persuasive sales voice"},
}

// Flag decodes true/false, 1/0 and "true"/"false".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*f = Flag(v)
	case float64:
		*f = v != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		*f = s == "true" || s == "1" || s == "yes"
	case nil:
		*f = false
	default:
		return fmt.Errorf("settings: cannot decode %s as flag", string(data))
	}
	return nil
}

// VoiceSetting is a tuned voice profile.
type VoiceSetting struct {
	ID        int64     `json:"id"`
	VoiceID   string    `json:"voice_id"`
	VoiceName string    `json:"voice_name"`
	Pitch     float64   `json:"pitch"`
	Speed     float64   `json:"speed"`
	Stability float64   `json:"stability"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultVoiceSetting is seeded into an empty store.
func DefaultVoiceSetting() VoiceSetting {
	return VoiceSetting{VoiceID: "voice5", VoiceName: "Sales Expert Male", Pitch: 1.0, Speed: 1.0, Stability: 0.5, IsDefault: true}
}

// VoiceSettingRequest is the body of POST /voice/settings.
type VoiceSettingRequest struct {
	VoiceID   string   `json:"voice_id"`
	VoiceName string   `json:"voice_name"`
	Pitch     *float64 `json:"pitch"`
	Speed     *float64 `json:"speed"`
	Stability *float64 `json:"stability"`
	IsDefault Flag     `json:"is_default"`
}

// Setting validates the request and fills unset tuning values.
func (r VoiceSettingRequest) Setting() (VoiceSetting, error) {
	v := VoiceSetting{
		VoiceID:   strings.TrimSpace(r.VoiceID),
		VoiceName: strings.TrimSpace(r.VoiceName),
		Pitch:     1.0,
		Speed:     1.0,
		Stability: 0.5,
		IsDefault: bool(r.IsDefault),
	}
	if v.VoiceID == "" {
		return v, ErrVoiceIDRequired
	}
	if v.VoiceName == "" {
		v.VoiceName = v.VoiceID
	}
	if r.Pitch != nil {
		v.Pitch = *r.Pitch
	}
	if r.Speed != nil {
		v.Speed = *r.Speed
	}
	if r.Stability != nil {
		v.Stability = *r.Stability
	}
	if v.Pitch < 0.5 || v.Pitch > 2 || v.Speed < 0.5 || v.Speed > 2 || v.Stability < 0 || v.Stability > 1 {
		return v, ErrInvalidVoiceSetting
	}
	return v, nil
}

// VoiceStore persists voice settings keyed by voice_id. Upserting a
// default clears the flag on every other row.
type VoiceStore interface {
	Upsert(ctx context.Context, v VoiceSetting) (*VoiceSetting, error)
	List(ctx context.Context) ([]*VoiceSetting, error)
}

// MemoryVoiceStore is seeded with DefaultVoiceSetting.
type MemoryVoiceStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[string]*VoiceSetting
}

func NewMemoryVoiceStore() *MemoryVoiceStore {
	s := &MemoryVoiceStore{byID: map[string]*VoiceSetting{}}
	_, _ = s.Upsert(context.Background(), DefaultVoiceSetting())
	return s
}

func (s *MemoryVoiceStore) Upsert(ctx context.Context, v VoiceSetting) (*VoiceSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if v.IsDefault {
		for _, existing := range s.byID {
			existing.IsDefault = false
		}
	}
	if existing, ok := s.byID[v.VoiceID]; ok {
		v.ID = existing.ID
		v.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		v.ID = s.nextID
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	stored := v
	s.byID[v.VoiceID] = &stored
	return &v, nil
}

func (s *MemoryVoiceStore) List(ctx context.Context) ([]*VoiceSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*VoiceSetting, 0, len(s.byID))
	for _, v := range s.byID {
		c := *v
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresVoiceStore stores voice settings in voice_settings.
type PostgresVoiceStore struct {
	db DB
}

func NewPostgresVoiceStore(db DB) *PostgresVoiceStore {
	if db == nil {
		panic("settings: pgx pool required")
	}
	return &PostgresVoiceStore{db: db}
}

func (s *PostgresVoiceStore) Upsert(ctx context.Context, v VoiceSetting) (*VoiceSetting, error) {
	if v.IsDefault {
		if _, err := s.db.Exec(ctx, `UPDATE voice_settings SET is_default = false, updated_at = now() WHERE voice_id <> $1 AND is_default`, v.VoiceID); err != nil {
			return nil, fmt.Errorf("settings: clear default voice: %w", err)
		}
	}
	out := v
	err := s.db.QueryRow(ctx, `
		INSERT INTO voice_settings (voice_id, voice_name, pitch, speed, stability, is_default)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (voice_id) DO UPDATE SET
			voice_name = EXCLUDED.voice_name,
			pitch = EXCLUDED.pitch,
			speed = EXCLUDED.speed,
			stability = EXCLUDED.stability,
			is_default = EXCLUDED.is_default,
			updated_at = now()
		RETURNING id, created_at, updated_at`,
		v.VoiceID, v.VoiceName, v.Pitch, v.Speed, v.Stability, v.IsDefault,
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("settings: upsert voice: %w", err)
	}
	return &out, nil
}

func (s *PostgresVoiceStore) List(ctx context.Context) ([]*VoiceSetting, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, voice_id, voice_name, pitch, speed, stability, is_default, created_at, updated_at
		FROM voice_settings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("settings: list voices: %w", err)
	}
	defer rows.Close()

	out := make([]*VoiceSetting, 0)
	for rows.Next() {
		var v VoiceSetting
		if err := rows.Scan(&v.ID, &v.VoiceID, &v.VoiceName, &v.Pitch, &v.Speed, &v.Stability, &v.IsDefault, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("settings: scan voice: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("settings: list voices rows: %w", err)
	}
	return out, nil
}
