package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	appconfig "github.com/wolfman30/outreach-ai-platform/internal/config"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

func memoryConfig() *appconfig.Config {
	return &appconfig.Config{
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
}

func TestBuildRequiresConfig(t *testing.T) {
	_, err := Build(context.Background(), nil, Deps{}, logging.New("error"))
	require.Error(t, err)
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(), Deps{}, logging.New("error"))
	require.NoError(t, err)
	defer app.Close()

	assert.True(t, app.Stores.Memory)
	require.NotNil(t, app.MemoryQueue)
	assert.NotNil(t, app.DialWorker())
	assert.NotNil(t, app.FollowUpWorker())

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/leads", "application/json",
		strings.NewReader(`{"name":"Acme Roofing","phone":"(303) 555-0100","address":"1 Main St, Denver, CO 80202"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/analytics/dashboard")
	require.NoError(t, err)
	var dash struct {
		TotalLeads int `json:"totalLeads"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dash))
	resp.Body.Close()
	assert.Equal(t, 1, dash.TotalLeads)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "outreach_")
}

func TestBuildUsesRedisSettings(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisAddr = mr.Addr()

	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	require.NotNil(t, client)
	defer client.Close()

	app, err := Build(context.Background(), cfg, Deps{Redis: client}, logging.New("error"))
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Settings.Update(context.Background(), map[string]any{"APPOINTMENT_LINK": "https://example.com/book"})
	require.NoError(t, err)
	assert.True(t, mr.Exists(cfg.SettingsKey))
	assert.Equal(t, "https://example.com/book", app.appointmentLink(context.Background()))
}

func TestBuildRedisClientDisabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, nil, false))
}

func TestBuildRedisClientUnreachable(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.New("error"), true))
}

func TestConnectPostgresEmptyURLReturnsNil(t *testing.T) {
	assert.Nil(t, ConnectPostgres(context.Background(), "", logging.New("error")))
}

func TestAPIKeyPrefersSettings(t *testing.T) {
	cfg := memoryConfig()
	cfg.APIKey = "boot-key"
	app, err := Build(context.Background(), cfg, Deps{}, logging.New("error"))
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "boot-key", app.apiKey(context.Background()))
	_, err = app.Settings.Update(context.Background(), map[string]any{"API_KEY": "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", app.apiKey(context.Background()))
}

func TestBuildArchiverNeedsBucketAndAWS(t *testing.T) {
	cfg := memoryConfig()
	assert.Nil(t, buildArchiver(cfg, nil, logging.New("error")))

	cfg.ArchiveBucket = "calls"
	assert.Nil(t, buildArchiver(cfg, nil, logging.New("error")))

	awsCfg := aws.Config{Region: "us-east-1"}
	assert.NotNil(t, buildArchiver(cfg, &awsCfg, logging.New("error")))
}

func TestBuildLLMFactoryEnablesBedrock(t *testing.T) {
	cfg := memoryConfig()
	assert.False(t, buildLLMFactory(cfg, nil, logging.New("error")).BedrockEnabled())

	cfg.BedrockModelID = "anthropic.claude-3-haiku"
	assert.False(t, buildLLMFactory(cfg, nil, logging.New("error")).BedrockEnabled())

	awsCfg := aws.Config{Region: "us-east-1"}
	assert.True(t, buildLLMFactory(cfg, &awsCfg, logging.New("error")).BedrockEnabled())
}

func TestMemoryLeadDeletePurgesCallLogs(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(), Deps{}, logging.New("error"))
	require.NoError(t, err)
	defer app.Close()
	ctx := context.Background()

	lead, err := app.Stores.Leads.Create(ctx, &leads.CreateLeadRequest{Name: "Acme Roofing", Phone: "3035550100"})
	require.NoError(t, err)
	_, err = app.Stores.CallLogs.Create(ctx, &calllogs.CallLog{LeadID: lead.ID, CallStatus: calllogs.StatusStarted})
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/leads/%d", srv.URL, lead.ID), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	logs, err := app.Stores.CallLogs.ListByLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
