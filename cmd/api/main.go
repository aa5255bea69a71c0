package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agendapp/office-service/internal/auth"
	"github.com/agendapp/office-service/internal/config"
	"github.com/agendapp/office-service/internal/db"
	"github.com/agendapp/office-service/internal/filestore"
	apphttp "github.com/agendapp/office-service/internal/http"
	"github.com/agendapp/office-service/internal/logging"
	"github.com/agendapp/office-service/internal/messaging"
	"github.com/agendapp/office-service/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Logger.Level, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.InitProvider(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Fatal("failed to initialize metrics", zap.Error(err))
	}

	database, err := db.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	perms, err := auth.LoadPermissions(cfg.App.PermissionsFile)
	if err != nil {
		logger.Fatal("failed to load permissions", zap.String("path", cfg.App.PermissionsFile), zap.Error(err))
	}

	var jwks *auth.JWKS
	if cfg.Auth.JWKSURL != "" {
		jwks, err = auth.NewJWKS(ctx, cfg.Auth.JWKSURL, 10*time.Minute)
		if err != nil {
			logger.Fatal("failed to fetch JWKS", zap.String("url", cfg.Auth.JWKSURL), zap.Error(err))
		}
		defer jwks.Close()
	}
	verifier := auth.NewVerifier(cfg.Auth, jwks)

	deps := apphttp.Dependencies{
		Config:   cfg,
		DB:       database,
		Verifier: verifier,
		Perms:    perms,
		Metrics:  metrics,
		Logger:   logger,
	}

	// Optional services degrade to "disabled" rather than stopping startup.
	if cfg.RabbitMQ.URL != "" {
		publisher, err := messaging.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, events disabled", zap.String("url", messaging.RedactURL(cfg.RabbitMQ.URL)), zap.Error(err))
		} else {
			defer publisher.Close()
			deps.Publisher = publisher
		}
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, profile cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			client.Close()
		} else {
			logger.Info("✓ Connected to Redis", zap.String("addr", cfg.Redis.Addr))
			defer client.Close()
			deps.Redis = client
		}
	}

	store, err := filestore.New(cfg.Minio)
	switch {
	case errors.Is(err, filestore.ErrNotConfigured):
		logger.Info("MinIO not configured, file templates disabled")
	case err != nil:
		logger.Warn("MinIO client failed, file templates disabled", zap.Error(err))
	default:
		if err := store.EnsureBucket(ctx, logger); err != nil {
			logger.Warn("MinIO bucket unavailable, file templates disabled", zap.String("bucket", cfg.Minio.Bucket), zap.Error(err))
		} else {
			deps.Store = store
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           apphttp.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("office-service starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
