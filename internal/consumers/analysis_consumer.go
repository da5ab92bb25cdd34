package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/votesense/internal/analysis"
	"github.com/spacesedan/votesense/internal/clients/kafka_client"
	kafkautils "github.com/spacesedan/votesense/internal/clients/kafka_client/utils"
	"github.com/spacesedan/votesense/internal/models"
	"github.com/spacesedan/votesense/internal/utils"
)

// DEDUP_SOURCE is the processed-set the consumer records request ids in.
const DEDUP_SOURCE = "requests"

const (
	PUBLISH_RETRIES = 3
	PUBLISH_BACKOFF = 1 * time.Second
	STORE_RETRIES   = 3
	STORE_BACKOFF   = 2 * time.Second
	MAX_BACKOFF     = 16 * time.Second
)

type Deduper interface {
	IsProcessed(ctx context.Context, source string, key string) bool
	MarkProcessed(ctx context.Context, source string, key string) error
}

type ResultStore interface {
	BatchInsertRunSummaries(ctx context.Context, results []models.AnalysisResult) error
}

type Publisher func(ctx context.Context, topic string, key string, value any) error

// Committer moves a partition's offset forward past msg, or back to msg for redelivery.
type Committer interface {
	Commit(msg *kafka.Message) error
	Rewind(msg *kafka.Message) error
}

type AnalysisConsumerOptions struct {
	ResultTopic string
	// Dedup and Store are optional.
	Dedup Deduper
	Store ResultStore
}

// AnalysisConsumer turns analysis requests into published results. When a store is configured, offsets
// are committed only once the result has been written.
type AnalysisConsumer struct {
	analyzer *analysis.Analyzer
	publish  Publisher
	opts     AnalysisConsumerOptions

	buffer  *utils.BatchBuffer[models.AnalysisResult]
	tracker utils.MessageTracker

	pauseDelay     time.Duration
	publishBackoff time.Duration
	storeBackoff   time.Duration
}

func NewAnalysisConsumer(analyzer *analysis.Analyzer, publish Publisher, opts AnalysisConsumerOptions) *AnalysisConsumer {
	if opts.ResultTopic == "" {
		opts.ResultTopic = kafka_client.KAFKA_TOPIC_ANALYSIS_RESULTS
	}
	return &AnalysisConsumer{
		analyzer:       analyzer,
		publish:        publish,
		opts:           opts,
		buffer:         utils.NewBatchBuffer[models.AnalysisResult](),
		pauseDelay:     kafka_client.RETRY_DELAY,
		publishBackoff: PUBLISH_BACKOFF,
		storeBackoff:   STORE_BACKOFF,
	}
}

// Start consumes until ctx is done. Consumption pauses while any health flag is false.
func (c *AnalysisConsumer) Start(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	c.run(ctx,
		kafka_client.NewKafkaMessageIterator(ctx, consumer),
		kafka_client.NewCommitHandler(ctx, consumer),
		health...)
}

type messageSource interface {
	Next() (*kafka.Message, error)
}

func (c *AnalysisConsumer) run(ctx context.Context, iterator messageSource, committer Committer, health ...*atomic.Bool) {
	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()
	defer c.flush(context.WithoutCancel(ctx), committer)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.flush(ctx, committer)
		default:
			if !allHealthy(health) {
				slog.Warn("[AnalysisConsumer] Dependency unhealthy, pausing consumption")
				time.Sleep(c.pauseDelay)
				continue
			}

			msg, err := iterator.Next()
			if err != nil {
				if !errors.Is(err, kafka_client.ErrNoMessage) {
					kafkautils.HandleConsumerError(err)
				}
				continue
			}
			if err := c.HandleMessage(ctx, msg, committer); err != nil {
				slog.Error("[AnalysisConsumer] Stopping consumer", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// HandleMessage analyzes a single request message. A result that cannot be published rewinds the
// partition to msg, since committing any later offset would skip it. The returned error means the
// partition could not be rewound and consumption must stop.
func (c *AnalysisConsumer) HandleMessage(ctx context.Context, msg *kafka.Message, committer Committer) error {
	req, err := kafkautils.DeserializeFromJSON[models.AnalysisRequest](msg.Value)
	if err != nil {
		slog.Error("[AnalysisConsumer] Dropping malformed request",
			slog.String("key", string(msg.Key)),
			slog.String("error", err.Error()))
		c.commitInOrder(ctx, msg, committer)
		return nil
	}
	if req.RequestID == "" {
		req.RequestID = string(msg.Key)
	}

	if c.opts.Dedup != nil && req.RequestID != "" && c.opts.Dedup.IsProcessed(ctx, DEDUP_SOURCE, req.RequestID) {
		slog.Info("[AnalysisConsumer] Skipping already processed request",
			slog.String("request_id", req.RequestID))
		c.commitInOrder(ctx, msg, committer)
		return nil
	}

	result := c.analyzer.Result(ctx, req)

	if err := c.publishWithRetry(ctx, result); err != nil {
		slog.Error("[AnalysisConsumer] Failed to publish result, rewinding for redelivery",
			slog.String("request_id", req.RequestID),
			slog.String("error", err.Error()))
		if rewindErr := committer.Rewind(msg); rewindErr != nil {
			return fmt.Errorf("[AnalysisConsumer] request %s was not published and could not be redelivered: %w",
				req.RequestID, rewindErr)
		}
		return nil
	}

	if c.opts.Dedup != nil && req.RequestID != "" {
		if err := c.opts.Dedup.MarkProcessed(ctx, DEDUP_SOURCE, req.RequestID); err != nil {
			slog.Warn("[AnalysisConsumer] Failed to mark request processed",
				slog.String("request_id", req.RequestID),
				slog.String("error", err.Error()))
		}
	}

	if c.opts.Store == nil {
		c.commit(msg, committer)
		return nil
	}

	c.tracker.Track(result.RunID, msg)
	if c.buffer.AddAndCheck(result, utils.DYNAMODB_BATCH_SIZE) {
		c.flush(ctx, committer)
	}
	return nil
}

func (c *AnalysisConsumer) publishWithRetry(ctx context.Context, result models.AnalysisResult) error {
	backoff := c.publishBackoff
	var err error
	for i := 0; i < PUBLISH_RETRIES; i++ {
		if err = c.publish(ctx, c.opts.ResultTopic, result.RunID, result); err == nil {
			return nil
		}
		slog.Warn("[AnalysisConsumer] Failed to publish result, retrying...",
			slog.String("run_id", result.RunID),
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		if i == PUBLISH_RETRIES-1 {
			break
		}
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
	return err
}

// commitInOrder commits msg after any buffered results, since committing an offset also commits every
// earlier offset of the partition.
func (c *AnalysisConsumer) commitInOrder(ctx context.Context, msg *kafka.Message, committer Committer) {
	if c.buffer.HasData() {
		c.flush(ctx, committer)
	}
	c.commit(msg, committer)
}

func (c *AnalysisConsumer) commit(msg *kafka.Message, committer Committer) {
	if err := committer.Commit(msg); err != nil {
		slog.Warn("[AnalysisConsumer] Failed to commit offset",
			slog.String("error", err.Error()))
	}
}

func (c *AnalysisConsumer) flush(ctx context.Context, committer Committer) {
	if c.opts.Store == nil {
		return
	}
	batch := c.buffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	backoff := c.storeBackoff
	for i := 0; i < STORE_RETRIES; i++ {
		insertErr := c.opts.Store.BatchInsertRunSummaries(ctx, batch)
		if insertErr == nil {
			break
		}
		slog.Error("[AnalysisConsumer] Failed to write results to DB",
			slog.String("error", insertErr.Error()),
			slog.Int("attempt", i+1))

		if i == STORE_RETRIES-1 || !sleepCtx(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff)
	}

	// Results were already published, so the offsets move on even when storing failed.
	for _, result := range batch {
		if msg, found := c.tracker.Take(result.RunID); found {
			c.commit(msg, committer)
		}
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > MAX_BACKOFF {
		d = MAX_BACKOFF
	}
	return d
}
