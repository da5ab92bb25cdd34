// Package analysis runs one analysis request end to end: record limit, pipeline, summary and metrics.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/votesense/internal/models"
	"github.com/spacesedan/votesense/internal/monitoring"
	"github.com/spacesedan/votesense/internal/pipeline"
	"github.com/spacesedan/votesense/internal/summary"
)

type Options struct {
	// MaxRecords rejects larger datasets before any scoring happens. 0 disables the limit.
	MaxRecords int
	// Metrics is optional.
	Metrics *monitoring.Metrics
	Logger  *slog.Logger
}

type Analyzer struct {
	pipeline *pipeline.Pipeline
	opts     Options
	now      func() time.Time
	newID    func() string
}

func New(p *pipeline.Pipeline, opts Options) *Analyzer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Analyzer{
		pipeline: p,
		opts:     opts,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Analyze runs the request and returns the report of the run. Errors are the structural failures of the
// run and are matchable with errors.Is against the models sentinels.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (models.Report, error) {
	report, err := a.analyze(ctx, req)
	if err != nil {
		if a.opts.Metrics != nil {
			a.opts.Metrics.ObserveFailure(req.Source, err)
		}
		a.opts.Logger.Warn("[Analyzer] Analysis failed",
			slog.String("run_id", report.RunID),
			slog.String("request_id", req.RequestID),
			slog.String("source", req.Source),
			slog.String("error", err.Error()))
		return report, err
	}

	if a.opts.Metrics != nil {
		a.opts.Metrics.ObserveReport(report)
	}
	a.opts.Logger.Info("[Analyzer] Analysis complete",
		slog.String("run_id", report.RunID),
		slog.String("request_id", req.RequestID),
		slog.Int("records", report.Summary.TotalRecords),
		slog.Float64("avg_sentiment", report.Summary.AvgSentiment),
		slog.String("outcome", string(report.Summary.Outcome)))
	return report, nil
}

// Result runs the request and folds any failure into the result, which is what gets published and stored.
func (a *Analyzer) Result(ctx context.Context, req models.AnalysisRequest) models.AnalysisResult {
	report, err := a.Analyze(ctx, req)
	if err != nil {
		return models.FailedResult(req, report.RunID, err, a.now())
	}
	return report.Result()
}

func (a *Analyzer) analyze(ctx context.Context, req models.AnalysisRequest) (models.Report, error) {
	start := a.now()
	report := models.Report{
		RunID:     a.newID(),
		RequestID: req.RequestID,
		Source:    req.Source,
		Query:     req.Query,
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if limit := a.opts.MaxRecords; limit > 0 && len(req.Dataset.Records) > limit {
		return report, fmt.Errorf("[Analyzer] %d records, limit is %d: %w",
			len(req.Dataset.Records), limit, models.ErrTooManyRecords)
	}

	enriched, err := a.pipeline.Run(req.Dataset)
	if err != nil {
		return report, fmt.Errorf("[Analyzer] pipeline failed: %w", err)
	}
	s, err := summary.Summarize(enriched)
	if err != nil {
		return report, err
	}

	report.Enriched = enriched
	report.Summary = s
	report.CompletedAt = a.now()
	report.Elapsed = report.CompletedAt.Sub(start)
	return report, nil
}
