package clients

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type AWSOptions struct {
	Region string
	// Endpoint overrides the service endpoint, e.g. a local DynamoDB.
	Endpoint string
}

var (
	awsCfg     aws.Config
	awsCfgErr  error
	awsOnce    sync.Once
	awsOptions AWSOptions
)

// GetAWSConfig loads the shared AWS config once. Later calls ignore opts.
func GetAWSConfig(ctx context.Context, opts AWSOptions) (aws.Config, error) {
	awsOnce.Do(func() {
		slog.Info("[AWSClient] Initializing AWS Config...",
			slog.String("region", opts.Region),
			slog.String("endpoint", opts.Endpoint))

		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
		if err != nil {
			awsCfgErr = fmt.Errorf("[AWSClient] Failed to load AWS config: %w", err)
			return
		}

		awsCfg = cfg
		awsOptions = opts
		slog.Info("[AWSClient] AWS Config Initialized")
	})

	return awsCfg, awsCfgErr
}

func GetDynamoDBClient(ctx context.Context, opts AWSOptions) (*dynamodb.Client, error) {
	cfg, err := GetAWSConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if awsOptions.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsOptions.Endpoint)
		}
	}), nil
}
