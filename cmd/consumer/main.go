package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/votesense/config"
	"github.com/spacesedan/votesense/internal/analysis"
	"github.com/spacesedan/votesense/internal/clients"
	"github.com/spacesedan/votesense/internal/clients/kafka_client"
	"github.com/spacesedan/votesense/internal/consumers"
	"github.com/spacesedan/votesense/internal/db"
	"github.com/spacesedan/votesense/internal/logging"
	"github.com/spacesedan/votesense/internal/monitoring"
	"github.com/spacesedan/votesense/internal/pipeline"
	"github.com/spacesedan/votesense/internal/sentiment"
	"github.com/spacesedan/votesense/internal/sentiment/transformer"
)

func main() {
	config.LoadEnv(os.Getenv("APP_ENV"))
	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Consumer] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kafkaCfg := kafka_client.GetKafkaConfig(cfg)
	for {
		err := kafka_client.InitKafkaProducer(ctx, kafkaCfg, "votesense-consumer-"+uuid.NewString())
		if err == nil {
			break
		}
		slog.Warn("[Consumer] Kafka init failed, retrying...", slog.String("error", err.Error()))
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
		slog.Error("[Consumer] Valkey unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer clients.CloseValkey()

	transformer.Register(transformer.Config{
		ModelName: cfg.TransformerModel,
		ModelDir:  cfg.TransformerModelDir,
	})
	scorer, err := sentiment.NewScorer(cfg.Scorer)
	if err != nil {
		slog.Error("[Consumer] Failed to create scorer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if t, ok := scorer.(*transformer.Scorer); ok {
		defer t.Close()
	}

	metrics := monitoring.NewMetrics()
	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
			slog.Error("[Consumer] Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	valkeyHealthy := &atomic.Bool{}
	valkeyHealthy.Store(true)
	go metrics.MonitorHealth(ctx, "valkey", 0, valkey.Ping, valkeyHealthy)

	analyzer := analysis.New(
		pipeline.New(scorer, pipeline.Options{StripMarkup: cfg.StripMarkup}),
		analysis.Options{MaxRecords: cfg.MaxRecords, Metrics: metrics},
	)

	consumerOpts := consumers.AnalysisConsumerOptions{
		ResultTopic: kafkaCfg.ResultTopic,
		Dedup:       valkey,
	}
	if cfg.StoreResults {
		dynamo, err := clients.GetDynamoDBClient(ctx, clients.AWSOptions{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.AWSEndpoint,
		})
		if err != nil {
			slog.Error("[Consumer] DynamoDB unavailable", slog.String("error", err.Error()))
			os.Exit(1)
		}
		consumerOpts.Store = db.NewResultStore(dynamo, cfg.DynamoDBTable)
	}

	analysisConsumer := consumers.NewAnalysisConsumer(analyzer, kafka_client.PublishToKafka, consumerOpts)
	kafka_client.RegisterConsumer(kafkaCfg.RequestTopic,
		consumers.WrapConsumer(analysisConsumer.Start).WithHealthCheck(valkeyHealthy).Handler())

	if err := kafka_client.StartConsumer(ctx, kafkaCfg, kafkaCfg.RequestTopic); err != nil {
		slog.Error("[Consumer] Failed to start consumer",
			slog.String("error", err.Error()))
	}
	slog.Info("[Consumer] Shutting down consumer gracefully...")
}
