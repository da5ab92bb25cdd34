package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "SCORER", "MAX_RECORDS", "KAFKA_REQUEST_TOPIC", "REDDIT_QUERIES", "REDDIT_FETCH_INTERVAL")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "vader", c.Scorer)
	assert.Equal(t, 50000, c.MaxRecords)
	assert.Equal(t, "analysis-requests", c.KafkaRequestTopic)
	assert.Equal(t, []string{"election", "candidate", "ballot"}, c.RedditQueries)
	assert.Equal(t, 10*time.Minute, c.RedditFetchInterval)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SCORER", "transformer")
	t.Setenv("MAX_RECORDS", "10")
	t.Setenv("STRIP_MARKUP", "true")
	t.Setenv("REDDIT_SUBREDDITS", "politics,news")
	t.Setenv("REDDIT_FETCH_INTERVAL", "30s")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "transformer", c.Scorer)
	assert.Equal(t, 10, c.MaxRecords)
	assert.True(t, c.StripMarkup)
	assert.Equal(t, []string{"politics", "news"}, c.RedditSubreddits)
	assert.Equal(t, 30*time.Second, c.RedditFetchInterval)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown scorer":  {"SCORER": "textblob"},
		"negative limit":  {"MAX_RECORDS": "-1"},
		"malformed limit": {"MAX_RECORDS": "lots"},
		"zero interval":   {"REDDIT_FETCH_INTERVAL": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestHasRedditCredentials(t *testing.T) {
	c := &Config{RedditClientID: "id"}
	assert.False(t, c.HasRedditCredentials())
	c.RedditClientSecret = "secret"
	assert.True(t, c.HasRedditCredentials())
}
