package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/database"
	"github.com/fundhaven/screening-backend/internal/logging"
	"github.com/fundhaven/screening-backend/internal/screening"
	"github.com/fundhaven/screening-backend/internal/worker"
)

// Standalone screening worker. Run as many instances as needed, on any
// host; the job store's conditional claim keeps them from stepping on each
// other.
func main() {
	logging.Setup()

	cfg := config.Load()

	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logging.LevelFromEnv()}),
		pgLogHandler,
	)))

	jobStore := screening.NewJobStore(database.DB)
	campaignStore := screening.NewCampaignStore(database.DB)
	moderator := screening.NewModerationClient(cfg)
	orchestrator := screening.NewOrchestrator(jobStore, campaignStore, moderator, cfg.Screening)

	if cfg.ModerationAPIKey == "" {
		slog.Warn("MODERATION_API_KEY not set; text moderation degrades to neutral results")
	}

	done := make(chan struct{})
	worker.Start(orchestrator, cfg.WorkerInterval, cfg.WorkerBatchSize, done)
	slog.Info("screening worker started",
		"interval", cfg.WorkerInterval.String(),
		"batch_size", cfg.WorkerBatchSize)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	close(done)
	pgLogHandler.Stop()

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("worker stopped")
}
