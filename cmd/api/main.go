package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/outreach-ai-platform/cmd/mainconfig"
	"github.com/wolfman30/outreach-ai-platform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/outreach-ai-platform/internal/config"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting outreach-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := connectPostgresPool(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Deps{
		Pool:  pool,
		Redis: redisClient,
		AWS:   loadAWS(ctx, cfg, logger),
	}, logger)
	if err != nil {
		logger.Error("failed to wire application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workers := setupInlineWorkers(ctx, app, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	cancel()
	waitForInlineWorkers(workers, logger)

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func connectPostgresPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg.UseMemoryStore {
		logger.Info("USE_MEMORY_STORE set; skipping postgres")
		return nil
	}
	return bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL, logger)
}

func loadAWS(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *aws.Config {
	if !mainconfig.NeedsAWS(cfg) {
		return nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Warn("failed to load AWS config; falling back to in-process queue", "error", err)
		return nil
	}
	return &awsCfg
}

// setupInlineWorkers runs the dial and follow-up workers inside the API
// process when the dial queue lives in memory, since no separate worker can
// reach it.
func setupInlineWorkers(ctx context.Context, app *bootstrap.App, logger *logging.Logger) *sync.WaitGroup {
	if app == nil || app.MemoryQueue == nil {
		return nil
	}
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
	logger.Info("inline dial and follow-up workers started")
	return &wg
}

func waitForInlineWorkers(wg *sync.WaitGroup, logger *logging.Logger) {
	if wg == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("inline workers stopped")
	case <-time.After(10 * time.Second):
		logger.Warn("inline workers did not stop in time")
	}
}
