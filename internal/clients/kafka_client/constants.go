package kafka_client

import "time"

const (
	KAFKA_TOPIC_ANALYSIS_REQUESTS = "analysis-requests" // datasets waiting for analysis
	KAFKA_TOPIC_ANALYSIS_RESULTS  = "analysis-results"  // summaries and failures of finished runs
)

const (
	BATCH_SIZE    = 25
	BATCH_TIMEOUT = 5 * time.Second
	MAX_RETRIES   = 5
	RETRY_DELAY   = 2 * time.Second
	POLL_TIMEOUT  = time.Second

	SEEK_TIMEOUT_MS = 5000
)
