package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wolfman30/outreach-ai-platform/cmd/mainconfig"
	"github.com/wolfman30/outreach-ai-platform/internal/app/bootstrap"
	"github.com/wolfman30/outreach-ai-platform/internal/config"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// The worker drains the SQS dial queue and dispatches due follow-ups. With an
// in-memory queue the API runs both loops itself, so this binary refuses to start.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.UseMemoryQueue || cfg.DialQueueURL == "" {
		logger.Error("worker requires DIAL_QUEUE_URL and USE_MEMORY_QUEUE=false")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("worker requires DATABASE_URL")
		os.Exit(1)
	}

	pool := bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Deps{Pool: pool, Redis: redisClient, AWS: &awsCfg}, logger)
	if err != nil {
		logger.Error("failed to wire worker", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	var wg sync.WaitGroup
	dial := app.DialWorker()
	followUps := app.FollowUpWorker()
	wg.Add(2)
	go func() {
		defer wg.Done()
		dial.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		followUps.Run(ctx)
	}()
	logger.Info("outreach worker started",
		"workers", cfg.WorkerCount,
		"follow_up_interval", cfg.FollowUpInterval.String(),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("outreach worker shutting down")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		logger.Warn("workers did not stop in time")
	}
}
