package monitoring

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spacesedan/votesense/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReport(t *testing.T) {
	m := NewMetrics()
	m.ObserveReport(models.Report{
		Source: models.SourceCSV,
		Enriched: &models.EnrichedDataset{
			Anomalies: []models.RowAnomaly{{Row: 2, Reason: "missing value in text column"}},
		},
		Summary: models.Summary{SentimentCounts: map[models.Category]int{
			models.CategoryPositive: 3,
			models.CategoryNegative: 1,
			models.CategoryNeutral:  0,
		}},
		Elapsed: 20 * time.Millisecond,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(models.SourceCSV, StatusSuccess, "")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsAnalyzed.WithLabelValues(string(models.CategoryPositive))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsAnalyzed.WithLabelValues(string(models.CategoryNegative))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowAnomalies))
}

func TestObserveFailure(t *testing.T) {
	m := NewMetrics()
	m.ObserveFailure(models.SourceReddit, fmt.Errorf("wrapped: %w", models.ErrNoTextColumn))
	m.ObserveFailure(models.SourceReddit, models.ErrNoTextColumn)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues(models.SourceReddit, StatusFailed, "no_text_column")))
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "empty_dataset", FailureReason(models.ErrEmptyDataset))
	assert.Equal(t, "malformed_input", FailureReason(models.ErrMalformedInput))
	assert.Equal(t, "too_many_records", FailureReason(models.ErrTooManyRecords))
	assert.Equal(t, "canceled", FailureReason(context.Canceled))
	assert.Equal(t, "internal", FailureReason(fmt.Errorf("boom")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveFailure(models.SourceCSV, models.ErrEmptyDataset)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "votesense_analysis_runs_total"))
}

func TestRecordHealth(t *testing.T) {
	m := NewMetrics()
	var healthy atomic.Bool

	m.recordHealth(context.Background(), "valkey", func(context.Context) bool { return true }, &healthy)
	assert.True(t, healthy.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DependencyUp.WithLabelValues("valkey")))

	m.recordHealth(context.Background(), "valkey", func(context.Context) bool { return false }, &healthy)
	assert.False(t, healthy.Load())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DependencyUp.WithLabelValues("valkey")))
}
