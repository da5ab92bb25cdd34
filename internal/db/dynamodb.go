package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/votesense/internal/models"
)

const (
	RUNS_TABLE_NAME = "analysis_runs"
	RESULT_TTL      = 7 * 24 * time.Hour
	maxBatchSize    = 25
)

var ErrRunNotFound = errors.New("analysis run not found")

// DynamoDBAPI is the part of *dynamodb.Client the result store uses.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// ResultStore keeps one item per analysis run, keyed by run_id. Enriched tables are never stored.
type ResultStore struct {
	client  DynamoDBAPI
	table   string
	now     func() time.Time
	backoff time.Duration
}

func NewResultStore(client DynamoDBAPI, table string) *ResultStore {
	if table == "" {
		table = RUNS_TABLE_NAME
	}
	return &ResultStore{
		client:  client,
		table:   table,
		now:     time.Now,
		backoff: 500 * time.Millisecond,
	}
}

// BatchInsertRunSummaries writes results in batches of 25, retrying unprocessed items with backoff.
func (s *ResultStore) BatchInsertRunSummaries(ctx context.Context, results []models.AnalysisResult) error {
	expiresAt := s.now().Add(RESULT_TTL).Unix()

	for i := 0; i < len(results); i += maxBatchSize {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := min(i+maxBatchSize, len(results))
		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, result := range results[i:end] {
			result.ExpiresAt = expiresAt
			item, err := attributevalue.MarshalMap(result)
			if err != nil {
				return fmt.Errorf("[DynamoDB] Failed to marshal run %s: %w", result.RunID, err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.batchWrite(ctx, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored run summaries", slog.Int("count", len(results)))
	return nil
}

func (s *ResultStore) batchWrite(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{s.table: writeRequests},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write run summaries: %w", err)
	}

	retryCount := 0
	backoff := s.backoff
	for len(out.UnprocessedItems) > 0 && retryCount < 3 {
		time.Sleep(backoff)
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed run summaries...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.table])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error: %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d run summaries not written after retries", remaining)
	}
	return nil
}

func (s *ResultStore) GetRunSummary(ctx context.Context, runID string) (models.AnalysisResult, error) {
	var result models.AnalysisResult

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
	})
	if err != nil {
		return result, fmt.Errorf("[DynamoDB] Failed to get run %s: %w", runID, err)
	}
	if len(out.Item) == 0 {
		return result, fmt.Errorf("[DynamoDB] run %s: %w", runID, ErrRunNotFound)
	}

	if err := attributevalue.UnmarshalMap(out.Item, &result); err != nil {
		return result, fmt.Errorf("[DynamoDB] Unable to unmarshal run %s: %w", runID, err)
	}
	return result, nil
}
