package kafka_client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// MessageCommitter is the part of *kafka.Consumer the commit handler needs.
type MessageCommitter interface {
	CommitMessage(msg *kafka.Message) ([]kafka.TopicPartition, error)
}

// MessageSeeker is the part of *kafka.Consumer used to rewind a partition.
type MessageSeeker interface {
	Seek(partition kafka.TopicPartition, timeoutMs int) error
}

type KafkaCommitHandler struct {
	consumer   MessageCommitter
	ctx        context.Context
	retryDelay time.Duration
}

func NewCommitHandler(ctx context.Context, consumer MessageCommitter) *KafkaCommitHandler {
	return &KafkaCommitHandler{
		consumer:   consumer,
		ctx:        ctx,
		retryDelay: RETRY_DELAY,
	}
}

func (ch *KafkaCommitHandler) Commit(msg *kafka.Message) error {
	if ch.consumer == nil {
		return errors.New("[KafkaCommitHandler] Kafka consumer has not been initialized")
	}

	for i := 0; i < MAX_RETRIES; i++ {
		select {
		case <-ch.ctx.Done():
			slog.Warn("[KafkaCommitHandler] Context canceled, stopping commit")
			return ch.ctx.Err()
		default:
			_, err := ch.consumer.CommitMessage(msg)
			if err == nil {
				slog.Debug("[KafkaCommitHandler] Successfully committed offset",
					slog.Int("partition", int(msg.TopicPartition.Partition)),
					slog.String("offset", msg.TopicPartition.Offset.String()))
				return nil
			}
			slog.Warn("[KafkaCommitHandler] Failed to commit offset, retrying...",
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()),
				slog.Int("partition", int(msg.TopicPartition.Partition)),
				slog.String("offset", msg.TopicPartition.Offset.String()))

			var kafkaErr kafka.Error
			if errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrAllBrokersDown {
				slog.Error("[KafkaCommitHandler] All Kafka brokers are down. Aborting commit")
				return err
			}

			time.Sleep(ch.retryDelay)
		}
	}

	return fmt.Errorf("[KafkaCommitHandler] Failed to commit message after %d retries", MAX_RETRIES)
}

// Rewind seeks msg's partition back to msg's offset so the message is read again. Messages already
// fetched past it are discarded by the consumer and redelivered as well.
func (ch *KafkaCommitHandler) Rewind(msg *kafka.Message) error {
	seeker, ok := ch.consumer.(MessageSeeker)
	if !ok {
		return errors.New("[KafkaCommitHandler] Kafka consumer does not support seeking")
	}

	if err := seeker.Seek(msg.TopicPartition, SEEK_TIMEOUT_MS); err != nil {
		return fmt.Errorf("[KafkaCommitHandler] Failed to rewind partition %d to offset %s: %w",
			msg.TopicPartition.Partition, msg.TopicPartition.Offset.String(), err)
	}
	slog.Warn("[KafkaCommitHandler] Rewound partition for redelivery",
		slog.Int("partition", int(msg.TopicPartition.Partition)),
		slog.String("offset", msg.TopicPartition.Offset.String()))
	return nil
}
