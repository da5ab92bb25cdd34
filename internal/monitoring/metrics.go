package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spacesedan/votesense/internal/models"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics are the counters kept for analysis runs.
type Metrics struct {
	registry prometheus.Gatherer

	Runs            *prometheus.CounterVec
	RecordsAnalyzed *prometheus.CounterVec
	RowAnomalies    prometheus.Counter
	RunDuration     prometheus.Histogram
	DependencyUp    *prometheus.GaugeVec
}

// NewMetrics registers the analysis metrics on a fresh registry, so that several instances (one per
// test) never collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "votesense_analysis_runs_total",
			Help: "Analysis runs by source, status and failure reason",
		}, []string{"source", "status", "reason"}),
		RecordsAnalyzed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "votesense_records_analyzed_total",
			Help: "Records scored, by sentiment category",
		}, []string{"category"}),
		RowAnomalies: factory.NewCounter(prometheus.CounterOpts{
			Name: "votesense_row_anomalies_total",
			Help: "Records that were scored neutral because they could not be scored cleanly",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "votesense_analysis_duration_seconds",
			Help:    "Wall time of successful analysis runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		DependencyUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "votesense_dependency_up",
			Help: "1 when the last health check of a dependency succeeded",
		}, []string{"dependency"}),
	}
}

func (m *Metrics) ObserveReport(report models.Report) {
	m.Runs.WithLabelValues(report.Source, StatusSuccess, "").Inc()
	for category, n := range report.Summary.SentimentCounts {
		m.RecordsAnalyzed.WithLabelValues(string(category)).Add(float64(n))
	}
	if report.Enriched != nil {
		m.RowAnomalies.Add(float64(len(report.Enriched.Anomalies)))
	}
	m.RunDuration.Observe(report.Elapsed.Seconds())
}

func (m *Metrics) ObserveFailure(source string, err error) {
	m.Runs.WithLabelValues(source, StatusFailed, FailureReason(err)).Inc()
}

// FailureReason turns a run error into a low-cardinality label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrNoTextColumn):
		return "no_text_column"
	case errors.Is(err, models.ErrEmptyDataset):
		return "empty_dataset"
	case errors.Is(err, models.ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, models.ErrTooManyRecords):
		return "too_many_records"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("[Metrics] Shutdown failed", slog.String("error", err.Error()))
		}
	}()

	slog.Info("[Metrics] Serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
