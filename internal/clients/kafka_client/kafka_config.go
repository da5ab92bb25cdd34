package kafka_client

import "github.com/spacesedan/votesense/config"

type KafkaConfig struct {
	Broker       string
	GroupID      string
	RequestTopic string
	ResultTopic  string
}

func GetKafkaConfig(c *config.Config) KafkaConfig {
	cfg := KafkaConfig{
		Broker:       c.KafkaBroker,
		GroupID:      c.KafkaConsumerGroupID,
		RequestTopic: c.KafkaRequestTopic,
		ResultTopic:  c.KafkaResultTopic,
	}
	if cfg.RequestTopic == "" {
		cfg.RequestTopic = KAFKA_TOPIC_ANALYSIS_REQUESTS
	}
	if cfg.ResultTopic == "" {
		cfg.ResultTopic = KAFKA_TOPIC_ANALYSIS_RESULTS
	}
	return cfg
}
