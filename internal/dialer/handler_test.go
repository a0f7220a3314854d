package dialer

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/outreach-ai-platform/internal/leads"
)

func newTestRouter(t *testing.T, gate HoursChecker) http.Handler {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	seedLead(t, repo, leads.CreateLeadRequest{Name: "Acme", Phone: "555"})

	var opts []Option
	if gate != nil {
		opts = append(opts, WithHoursChecker(gate))
	}
	svc := NewService(repo, staticSettings{}, &fakePlacer{}, nil, opts...)
	h := NewHandler(svc, NewEnqueuer(repo, NewMemoryQueue(10), gate, nil, nil), nil)

	r := chi.NewRouter()
	r.Post("/call", h.Call)
	r.Post("/auto_dial", h.AutoDial)
	return r
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCall(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := post(router, "/call", `{"lead_id":1,"is_manual":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"call_sid":"dummy-call","dummy":true}`, rec.Body.String())

	rec = post(router, "/call", `{"lead_id":44}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Lead not found"}`, rec.Body.String())
}

func TestHandlerOutsideHours(t *testing.T) {
	router := newTestRouter(t, closed)

	rec := post(router, "/call", `{"lead_id":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Outside of calling hours"}`, rec.Body.String())

	rec = post(router, "/call", `{"lead_id":1,"is_manual":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post(router, "/auto_dial", `{"lead_ids":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Outside of calling hours"}`, rec.Body.String())
}

func TestHandlerAutoDial(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := post(router, "/auto_dial", `{"lead_ids":[1,2]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queued":[1],"skipped":[2]}`, rec.Body.String())

	rec = post(router, "/auto_dial", `{"lead_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
