package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/avatar"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/httpserver"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/metrics"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/oracle"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/postgres"
	"github.com/yuchiehee/personalpage-backend/internal/adapter/redis"
	"github.com/yuchiehee/personalpage-backend/internal/app"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
	"github.com/yuchiehee/personalpage-backend/internal/platform/config"
	"github.com/yuchiehee/personalpage-backend/internal/platform/logging"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	if err := client.Ping(ctx); err != nil {
		slog.Error("Failed to ping Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupAvatarStore(cfg *config.Config, clock clockwork.Clock) domain.AvatarStore {
	switch cfg.AvatarBackend {
	case config.AvatarBackendS3:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := avatar.NewS3Store(ctx, avatar.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		}, clock)
		if err != nil {
			slog.Error("Failed to create S3 avatar store", "error", err)
			os.Exit(1)
		}
		return store
	default:
		return avatar.NewFSStore(cfg.AvatarDir, cfg.AvatarPublicURL, clock)
	}
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	accountRepo := postgres.NewAccountRepo(pool)
	commentRepo := postgres.NewCommentRepo(pool)
	sessionStore := redis.NewSessionStore(redisClient.Underlying())
	avatarStore := setupAvatarStore(cfg, clock)
	oracleClient := oracle.NewClient(cfg.OracleURL, cfg.OracleAPIKey, cfg.OracleTimeout)

	appSvc := app.NewService(accountRepo, commentRepo, sessionStore, avatarStore, oracleClient, cfg.SessionMaxAge)

	registry := metrics.NewRegistry()

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: redisClient.Ping},
	}

	srv := httpserver.NewServer(cfg, appSvc, registry, healthChecks)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
