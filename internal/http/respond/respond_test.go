package respond

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "Outside of calling hours")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Outside of calling hours"}`, rec.Body.String())
}

func TestDecodeEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	dst := struct {
		MaxCalls int `json:"max_calls"`
	}{MaxCalls: 10}
	require.NoError(t, Decode(req, &dst))
	assert.Equal(t, 10, dst.MaxCalls)
}

func TestDecodeBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"max_calls":3}`))
	var dst struct {
		MaxCalls int `json:"max_calls"`
	}
	require.NoError(t, Decode(req, &dst))
	assert.Equal(t, 3, dst.MaxCalls)
}
