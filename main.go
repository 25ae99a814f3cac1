package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/oauth2"

	"github.com/rezzza07/artmart/api"
	"github.com/rezzza07/artmart/cache/redis"
	"github.com/rezzza07/artmart/config"
	"github.com/rezzza07/artmart/mq/sqsmq"
	"github.com/rezzza07/artmart/store/dynamo"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	artmartStore, err := dynamo.NewDynamoArtmartStore(ctx, cfg.DevMode, cfg.DynamoDBEndpoint, cfg.DynamoDBTable)
	if err != nil {
		slog.Error("Failed to create dynamodb store", "error", err)
		os.Exit(1)
	}

	cleanupQueue, err := sqsmq.NewSQSMessageQueue(ctx, cfg.DevMode, cfg.SQSEndpoint, cfg.CleanupQueueName)
	if err != nil {
		slog.Error("Failed to create SQS MQ", "error", err)
		os.Exit(1)
	}

	artmartCache, err := redis.NewRedisArtmartCache(ctx, cfg.DevMode, cfg.RedisEndpoint)
	if err != nil {
		slog.Error("Failed to create redis cache", "error", err)
		os.Exit(1)
	}

	oauthConfigs := map[string]*oauth2.Config{
		"github": {
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
		},
		"google": {
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
		},
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	artmartAPI, err := api.NewArtmartAPI(artmartStore, cleanupQueue, artmartCache, oauthConfigs, cfg.JWTSecret, shutdownCtx)
	if err != nil {
		slog.Error("Failed to create artmart api", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    ":" + cfg.HostPort,
		Handler: artmartAPI.Routes(cfg.AllowedOrigin),
	}

	go func() {
		slog.Info("Starting server", "port", cfg.HostPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-shutdownCtx.Done()
	slog.Info("Server shutting down...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(stopCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
