package main

import (
	"context"
	"testing"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/outreach-ai-platform/internal/config"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

func testConfig(memoryQueue bool) *appconfig.Config {
	return &appconfig.Config{
		UseMemoryStore:     true,
		UseMemoryQueue:     memoryQueue,
		WorkerCount:        1,
		DialReceiveWait:    1,
		FollowUpInterval:   time.Hour,
		FollowUpBatchSize:  1,
		CORSAllowedOrigins: []string{"*"},
	}
}

func TestConnectPostgresPoolMemoryStoreReturnsNil(t *testing.T) {
	logger := logging.New("error")
	cfg := testConfig(true)
	cfg.DatabaseURL = "postgres://localhost:1/outreach"
	if pool := connectPostgresPool(context.Background(), cfg, logger); pool != nil {
		t.Fatalf("expected nil pool when memory store is forced")
	}
}

func TestLoadAWSSkippedWithoutAWSComponents(t *testing.T) {
	if cfg := loadAWS(context.Background(), testConfig(true), logging.New("error")); cfg != nil {
		t.Fatalf("expected no aws config for memory queue without SES")
	}
}

func TestSetupInlineWorkersStartsAndStops(t *testing.T) {
	logger := logging.New("error")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.Build(ctx, testConfig(true), bootstrap.Deps{}, logger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	wg := setupInlineWorkers(ctx, app, logger)
	if wg == nil {
		t.Fatalf("expected inline workers when the dial queue is in memory")
	}

	cancel()
	waitForInlineWorkers(wg, logger)
}

func TestSetupInlineWorkersNilApp(t *testing.T) {
	if wg := setupInlineWorkers(context.Background(), nil, logging.New("error")); wg != nil {
		t.Fatalf("expected no workers without an app")
	}
}
