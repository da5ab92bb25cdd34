package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting read from the environment.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Scorer              string `envconfig:"SCORER" default:"vader"`
	TransformerModel    string `envconfig:"TRANSFORMER_MODEL" default:"KnightsAnalytics/distilbert-base-uncased-finetuned-sst-2-english"`
	TransformerModelDir string `envconfig:"TRANSFORMER_MODEL_DIR" default:"./models"`
	StripMarkup         bool   `envconfig:"STRIP_MARKUP" default:"false"`
	// MaxRecords of 0 disables the limit.
	MaxRecords int `envconfig:"MAX_RECORDS" default:"50000"`

	KafkaBroker          string `envconfig:"KAFKA_BROKER" default:"localhost:29092"`
	KafkaConsumerGroupID string `envconfig:"KAFKA_CONSUMER_GROUP_ID" default:"votesense-analysis"`
	KafkaRequestTopic    string `envconfig:"KAFKA_REQUEST_TOPIC" default:"analysis-requests"`
	KafkaResultTopic     string `envconfig:"KAFKA_RESULT_TOPIC" default:"analysis-results"`

	ValkeyInitAddress string `envconfig:"VALKEY_INIT_ADDRESS" default:"localhost:6379"`
	ValkeyPassword    string `envconfig:"VALKEY_PASSWORD"`
	ValkeyTLS         bool   `envconfig:"VALKEY_TLS" default:"false"`

	AWSEndpoint   string `envconfig:"AWS_ENDPOINT" default:"http://localhost:8000"`
	AWSRegion     string `envconfig:"AWS_REGION" default:"us-west-2"`
	DynamoDBTable string `envconfig:"DYNAMODB_TABLE" default:"analysis_runs"`
	StoreResults  bool   `envconfig:"STORE_RESULTS" default:"true"`

	RedditClientID      string        `envconfig:"REDDIT_CLIENT_ID"`
	RedditClientSecret  string        `envconfig:"REDDIT_CLIENT_SECRET"`
	RedditQueries       []string      `envconfig:"REDDIT_QUERIES" default:"election,candidate,ballot"`
	RedditSubreddits    []string      `envconfig:"REDDIT_SUBREDDITS" default:"politics,PoliticalDiscussion"`
	RedditFetchInterval time.Duration `envconfig:"REDDIT_FETCH_INTERVAL" default:"10m"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":2112"`
}

// Load decodes the environment into a Config. Call LoadEnv first to pick up an env file.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("[Config] failed to process environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Scorer) {
	case "vader", "transformer":
	default:
		return fmt.Errorf("[Config] unknown SCORER %q, expected vader or transformer", c.Scorer)
	}
	if c.MaxRecords < 0 {
		return fmt.Errorf("[Config] MAX_RECORDS must not be negative, got %d", c.MaxRecords)
	}
	if c.RedditFetchInterval <= 0 {
		return fmt.Errorf("[Config] REDDIT_FETCH_INTERVAL must be positive, got %s", c.RedditFetchInterval)
	}
	return nil
}

// HasRedditCredentials reports whether the Reddit source can authenticate.
func (c *Config) HasRedditCredentials() bool {
	return c.RedditClientID != "" && c.RedditClientSecret != ""
}
