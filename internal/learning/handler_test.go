package learning

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(newFixture(t).service(), nil)
	r := chi.NewRouter()
	r.Get("/ai/patterns", h.Patterns)
	r.Post("/analytics/learn", h.Learn)
	return r
}

func TestHandlerLearnThenPatterns(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analytics/learn", strings.NewReader(`{"days":14}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var res LearnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.CallsAnalyzed)
	assert.Contains(t, rec.Body.String(), `"patternsIdentified":5`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ai/patterns", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var p Patterns
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, []string{closer}, p.ClosingTechniques)
}

func TestHandlerLearnEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analytics/learn", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerLearnRejectsBadDays(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analytics/learn", strings.NewReader(`{"days":-1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrInvalidDays.Error())
}
