package main

import (
	"context"
	"log"
	"time"

	"github.com/agendapp/office-service/internal/config"
	"github.com/agendapp/office-service/internal/db"
	"github.com/agendapp/office-service/internal/logging"
	"github.com/agendapp/office-service/internal/patient"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Logger.Level, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Patient Cleanup Job - Starting", zap.Int("retention_years", cfg.App.RetentionYears))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	database, err := db.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	cleanup := patient.NewCleanupService(database, cfg.App.RetentionYears, logger)

	count, err := cleanup.ExpiredCount(ctx)
	if err != nil {
		logger.Fatal("failed to count expired patients", zap.Error(err))
	}
	logger.Info("patients eligible for permanent deletion", zap.Int("count", count))
	if count == 0 {
		logger.Info("No cleanup needed. Exiting.")
		return
	}

	purged, err := cleanup.CleanupExpiredPatients(ctx)
	if err != nil {
		logger.Fatal("cleanup failed", zap.Error(err))
	}
	logger.Info("✓ Cleanup completed successfully", zap.Int("purged", purged))
}
