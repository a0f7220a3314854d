package client_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/outreach-ai-platform/internal/app/bootstrap"
	"github.com/wolfman30/outreach-ai-platform/internal/client"
	appconfig "github.com/wolfman30/outreach-ai-platform/internal/config"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

func newAppServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &appconfig.Config{
		UseMemoryQueue:     true,
		SettingsKey:        "outreach:settings",
		WorkerCount:        1,
		DialReceiveWait:    1,
		FollowUpInterval:   time.Minute,
		FollowUpBatchSize:  5,
		RetryFollowUpAfter: time.Hour,
		CORSAllowedOrigins: []string{"*"},
		GeminiModelID:      "gemini-2.5-flash",
		TwilioAPIBaseURL:   "http://127.0.0.1:1",
		ElevenLabsBaseURL:  "http://127.0.0.1:1",
		ZohoAccountsURL:    "http://127.0.0.1:1",
		ZohoAPIURL:         "http://127.0.0.1:1",
	}
	app, err := bootstrap.Build(context.Background(), cfg, bootstrap.Deps{}, logging.New("error"))
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		srv.Close()
		app.Close()
	})
	return srv
}

func TestLeadLifecycle(t *testing.T) {
	srv := newAppServer(t)
	c := client.New(srv.URL + "/api")
	ctx := context.Background()

	names := []string{"Bravo Plumbing", "Alpha Roofing", "Charlie HVAC"}
	var ids []int64
	for i, name := range names {
		id, err := c.CreateLead(ctx, leads.CreateLeadRequest{
			Name:     name,
			Phone:    "(303) 555-010" + string(rune('0'+i)),
			Industry: "Construction",
			Address:  "1 Main St, Denver, CO 80202",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := c.ListLeads(ctx, client.LeadQuery{Sort: "name"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Alpha Roofing", list[0].Name)

	page, err := c.LeadPage(ctx, client.LeadQuery{Sort: "name", Desc: true, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Charlie HVAC", page.Items[0].Name)

	status := leads.StatusInterested
	require.NoError(t, c.UpdateLead(ctx, ids[0], leads.UpdateLeadRequest{Status: &status}))
	contacted, err := c.ListLeads(ctx, client.LeadQuery{Status: leads.StatusInterested})
	require.NoError(t, err)
	require.Len(t, contacted, 1)
	assert.Equal(t, ids[0], contacted[0].ID)

	var buf bytes.Buffer
	filename, err := c.ExportLeads(ctx, "csv", client.LeadQuery{}, &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "leads_"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))
	assert.Contains(t, buf.String(), "Charlie HVAC")

	deleted, err := c.DeleteLeads(ctx, ids[1], ids[2])
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	deleted, err = c.DeleteLeads(ctx, ids[0])
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	dash, err := c.Dashboard(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, dash.TotalLeads)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	srv := newAppServer(t)
	c := client.New(srv.URL + "/api")

	_, err := c.ExportLeads(context.Background(), "pdf", client.LeadQuery{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))
}

func TestErrorBodyIsParsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Outside of calling hours"}`))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).AutoDial(context.Background(), []int64{1})
	require.Error(t, err)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Outside of calling hours", apiErr.Message)
	assert.True(t, client.IsOutsideCallingHours(err))
	assert.False(t, client.IsStatus(err, http.StatusNotFound))
}

func TestPlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).BusinessHours(context.Background())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.False(t, client.IsOutsideCallingHours(err))
}

func TestAuthHeaders(t *testing.T) {
	var gotKey, gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithAPIKey("k1"), client.WithToken("t1"))
	_, err := c.Appointments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k1", gotKey)
	assert.Equal(t, "Bearer t1", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestLeadQueryEncoding(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"items":[],"total":0,"page":2,"page_size":5,"pages":0}`))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).LeadPage(context.Background(), client.LeadQuery{
		Status: "New", Search: "roof", Sort: "city", Desc: true, Page: 2, PageSize: 5,
	})
	require.NoError(t, err)
	assert.Contains(t, raw, "status=New")
	assert.Contains(t, raw, "q=roof")
	assert.Contains(t, raw, "sort=city")
	assert.Contains(t, raw, "order=desc")
	assert.Contains(t, raw, "page=2")
	assert.Contains(t, raw, "page_size=5")
}
