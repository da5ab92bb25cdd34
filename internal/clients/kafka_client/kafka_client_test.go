package kafka_client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/votesense/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	errs []error
	msg  *kafka.Message
	hits int
}

func (f *fakeReader) ReadMessage(time.Duration) (*kafka.Message, error) {
	f.hits++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.msg, nil
}

type fakeCommitter struct {
	errs      []error
	committed []*kafka.Message
}

func (f *fakeCommitter) CommitMessage(msg *kafka.Message) ([]kafka.TopicPartition, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	f.committed = append(f.committed, msg)
	return []kafka.TopicPartition{msg.TopicPartition}, nil
}

func testMessage() *kafka.Message {
	topic := KAFKA_TOPIC_ANALYSIS_REQUESTS
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: 0, Offset: 7},
		Value:          []byte(`{}`),
	}
}

func TestIteratorReturnsMessage(t *testing.T) {
	reader := &fakeReader{msg: testMessage()}
	it := NewKafkaMessageIterator(context.Background(), reader)

	msg, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, kafka.Offset(7), msg.TopicPartition.Offset)
}

func TestIteratorTimeout(t *testing.T) {
	reader := &fakeReader{errs: []error{kafka.NewError(kafka.ErrTimedOut, "timed out", false)}}
	it := NewKafkaMessageIterator(context.Background(), reader)

	_, err := it.Next()
	assert.ErrorIs(t, err, ErrNoMessage)
	assert.Equal(t, 1, reader.hits)
}

func TestIteratorRetriesTransientErrors(t *testing.T) {
	reader := &fakeReader{
		errs: []error{errors.New("broker transport failure"), errors.New("broker transport failure")},
		msg:  testMessage(),
	}
	it := NewKafkaMessageIterator(context.Background(), reader)
	it.retryDelay = 0

	msg, err := it.Next()
	require.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Equal(t, 3, reader.hits)
}

func TestIteratorAbortsWhenBrokersDown(t *testing.T) {
	reader := &fakeReader{errs: []error{kafka.NewError(kafka.ErrAllBrokersDown, "down", false)}}
	it := NewKafkaMessageIterator(context.Background(), reader)

	_, err := it.Next()
	assert.Error(t, err)
	assert.Equal(t, 1, reader.hits)
}

func TestIteratorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKafkaMessageIterator(ctx, &fakeReader{msg: testMessage()}).Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommitHandlerRetries(t *testing.T) {
	committer := &fakeCommitter{errs: []error{errors.New("coordinator not available")}}
	ch := NewCommitHandler(context.Background(), committer)
	ch.retryDelay = 0

	require.NoError(t, ch.Commit(testMessage()))
	assert.Len(t, committer.committed, 1)
}

func TestCommitHandlerGivesUp(t *testing.T) {
	errs := make([]error, MAX_RETRIES)
	for i := range errs {
		errs[i] = errors.New("coordinator not available")
	}
	ch := NewCommitHandler(context.Background(), &fakeCommitter{errs: errs})
	ch.retryDelay = 0

	assert.Error(t, ch.Commit(testMessage()))
}

type seekingCommitter struct {
	fakeCommitter
	seekErr error
	seeked  []kafka.TopicPartition
}

func (f *seekingCommitter) Seek(partition kafka.TopicPartition, _ int) error {
	if f.seekErr != nil {
		return f.seekErr
	}
	f.seeked = append(f.seeked, partition)
	return nil
}

func TestCommitHandlerRewindSeeksToMessageOffset(t *testing.T) {
	consumer := &seekingCommitter{}
	ch := NewCommitHandler(context.Background(), consumer)

	require.NoError(t, ch.Rewind(testMessage()))
	require.Len(t, consumer.seeked, 1)
	assert.Equal(t, kafka.Offset(7), consumer.seeked[0].Offset)
	assert.Equal(t, KAFKA_TOPIC_ANALYSIS_REQUESTS, *consumer.seeked[0].Topic)
}

func TestCommitHandlerRewindErrors(t *testing.T) {
	err := NewCommitHandler(context.Background(), &fakeCommitter{}).Rewind(testMessage())
	assert.ErrorContains(t, err, "does not support seeking")

	failing := &seekingCommitter{seekErr: errors.New("unknown partition")}
	err = NewCommitHandler(context.Background(), failing).Rewind(testMessage())
	assert.ErrorContains(t, err, "unknown partition")
}

func TestGetKafkaConfigDefaultsTopics(t *testing.T) {
	cfg := GetKafkaConfig(&config.Config{KafkaBroker: "kafka:9092", KafkaConsumerGroupID: "g"})

	assert.Equal(t, "kafka:9092", cfg.Broker)
	assert.Equal(t, KAFKA_TOPIC_ANALYSIS_REQUESTS, cfg.RequestTopic)
	assert.Equal(t, KAFKA_TOPIC_ANALYSIS_RESULTS, cfg.ResultTopic)
}

func TestStartConsumerUnknownTopic(t *testing.T) {
	err := StartConsumer(context.Background(), KafkaConfig{}, "nobody-listens-here")
	assert.ErrorContains(t, err, "No consumer found")
}
