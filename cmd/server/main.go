package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Priya8975/merchant-activity-service/internal/api"
	"github.com/Priya8975/merchant-activity-service/internal/config"
	"github.com/Priya8975/merchant-activity-service/internal/ingest"
	"github.com/Priya8975/merchant-activity-service/internal/store"
	ws "github.com/Priya8975/merchant-activity-service/internal/websocket"
	"github.com/Priya8975/merchant-activity-service/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx := context.Background()
	backend, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	// Interfaces stay nil unless the backing service is configured.
	var (
		runState  worker.RunStateStore
		history   api.RunHistory
		analytics api.AnalyticsSource
	)
	if backend.Postgres != nil {
		analytics = backend.Postgres
	}
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		logger.Info("connected to Redis")
		runState = redisStore
		history = redisStore
	}

	launcher := worker.NewLauncher(backend, ingest.Config{
		DataDir:    cfg.DataDir,
		FilePrefix: cfg.FilePrefix,
		BatchSize:  cfg.BatchSize,
	}, runState, cfg.LockTTL, logger)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := ws.NewHub(logger)
	go hub.Run(hubCtx)
	launcher.SetObserver(hub)

	if cfg.ImportOnStartup {
		launcher.Start(ctx)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(launcher, history, analytics, hub, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// A run cannot be cancelled; give it what is left of the budget to finish
	// before its store is closed underneath it.
	if task := launcher.Current(); task != nil {
		if _, err := task.Wait(shutdownCtx); err != nil && shutdownCtx.Err() != nil {
			logger.Warn("import run still in progress at shutdown", "run_id", task.ID())
		}
	}

	logger.Info("server stopped")
}
