package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prospectbingo/bingo/backend/go-services/internal/config"
	"github.com/prospectbingo/bingo/backend/go-services/internal/database"
	"github.com/prospectbingo/bingo/backend/go-services/internal/server"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	// LOG_LEVEL is read before config so config loading itself is logged at the right level
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: mongo=%v redis=%v ratelimit=%v base=%s", cfg.MongoDB.URI != "", cfg.Redis.Addr() != "", cfg.RateLimit.Enabled, cfg.Server.BasePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deps server.Deps

	if addr := cfg.Redis.Addr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v; cache and shared rate limit disabled", addr, err)
			_ = client.Close()
		} else {
			logger.Infof("connected to Redis at %s", addr)
			deps.Redis = client
			defer func() { _ = client.Close() }()
		}
	}

	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.ConnectAttempts)
		if err != nil {
			logger.Warnf("%v; falling back to the in-memory store", err)
		} else {
			deps.Mongo = client
			defer func() { _ = client.Disconnect(context.Background()) }()
		}
	}

	srv, err := server.New(ctx, cfg, deps)
	if err != nil {
		logger.Fatalf("failed to build server: %v", err)
	}
	if err := srv.Run(ctx); err != nil {
		logger.Errorf("server failed: %v", err)
		os.Exit(1)
	}
	logger.Infof("stopped")
}
