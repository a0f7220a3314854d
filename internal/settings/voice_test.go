package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagDecoding(t *testing.T) {
	cases := map[string]bool{
		`{"is_default":1}`:      true,
		`{"is_default":0}`:      false,
		`{"is_default":true}`:   true,
		`{"is_default":"true"}`: true,
		`{"is_default":null}`:   false,
		`{}`:                    false,
	}
	for body, want := range cases {
		var req VoiceSettingRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.Equal(t, want, bool(req.IsDefault), body)
	}

	var req VoiceSettingRequest
	assert.Error(t, json.Unmarshal([]byte(`{"is_default":[1]}`), &req))
}

func TestVoiceSettingRequestDefaultsAndValidation(t *testing.T) {
	v, err := VoiceSettingRequest{VoiceID: "voice2"}.Setting()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Pitch)
	assert.Equal(t, 0.5, v.Stability)
	assert.Equal(t, "voice2", v.VoiceName)

	_, err = VoiceSettingRequest{}.Setting()
	assert.ErrorIs(t, err, ErrVoiceIDRequired)

	tooFast := 3.0
	_, err = VoiceSettingRequest{VoiceID: "v", Speed: &tooFast}.Setting()
	assert.ErrorIs(t, err, ErrInvalidVoiceSetting)
}

func TestMemoryVoiceStoreSingleDefault(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryVoiceStore()

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "voice5", list[0].VoiceID)
	assert.True(t, list[0].IsDefault)

	_, err = store.Upsert(ctx, VoiceSetting{VoiceID: "voice2", VoiceName: "Professional Female", Pitch: 1, Speed: 1.1, Stability: 0.6, IsDefault: true})
	require.NoError(t, err)
	updated, err := store.Upsert(ctx, VoiceSetting{VoiceID: "voice2", VoiceName: "Professional Female", Pitch: 1, Speed: 1.2, Stability: 0.6, IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.ID)

	list, _ = store.List(ctx)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsDefault)
	assert.True(t, list[1].IsDefault)
	assert.Equal(t, 1.2, list[1].Speed)
}

func TestPostgresVoiceStoreUpsertDefault(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE voice_settings SET is_default = false").
		WithArgs("voice2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO voice_settings").
		WithArgs("voice2", "Professional Female", 1.0, 1.0, 0.5, true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(4), now, now))

	v, err := NewPostgresVoiceStore(mock).Upsert(context.Background(), VoiceSetting{
		VoiceID: "voice2", VoiceName: "Professional Female", Pitch: 1, Speed: 1, Stability: 0.5, IsDefault: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
