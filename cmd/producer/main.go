package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/votesense/config"
	"github.com/spacesedan/votesense/internal/clients"
	"github.com/spacesedan/votesense/internal/clients/kafka_client"
	"github.com/spacesedan/votesense/internal/logging"
	"github.com/spacesedan/votesense/internal/processing"
)

func main() {
	config.LoadEnv(os.Getenv("APP_ENV"))
	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Producer] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	if !cfg.HasRedditCredentials() {
		slog.Error("[Producer] REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kafkaCfg := kafka_client.GetKafkaConfig(cfg)
	for {
		err := kafka_client.InitKafkaProducer(ctx, kafkaCfg, "votesense-producer-"+uuid.NewString())
		if err == nil {
			break
		}
		slog.Warn("[Producer] Kafka init failed, retrying...", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
	defer kafka_client.CloseKafkaProducer()

	valkey, err := clients.InitValkey(clients.ValkeyOptions{
		Address:  cfg.ValkeyInitAddress,
		Password: cfg.ValkeyPassword,
		TLS:      cfg.ValkeyTLS,
	})
	if err != nil {
		slog.Error("[Producer] Valkey unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer clients.CloseValkey()

	collector := processing.NewCollector(
		clients.NewRedditClient(cfg.RedditClientID, cfg.RedditClientSecret),
		kafka_client.PublishToKafka,
		processing.CollectorOptions{
			Topic:      kafkaCfg.RequestTopic,
			Queries:    cfg.RedditQueries,
			Subreddits: cfg.RedditSubreddits,
			MaxRecords: cfg.MaxRecords,
			Dedup:      valkey,
		},
	)

	ticker := time.NewTicker(cfg.RedditFetchInterval)
	defer ticker.Stop()

	// Fetch once on startup, then on every tick.
	for {
		if _, err := collector.FetchRedditContent(ctx); err != nil && ctx.Err() == nil {
			slog.Error("[Producer] Fetch failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			slog.Info("[Producer] Shutting down producer gracefully...")
			return
		case <-ticker.C:
		}
	}
}
