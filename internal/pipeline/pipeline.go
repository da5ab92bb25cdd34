// Package pipeline turns a raw table into an enriched table with one normalized text, polarity score
// and sentiment category per record.
package pipeline

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spacesedan/votesense/internal/dataset"
	"github.com/spacesedan/votesense/internal/models"
	"github.com/spacesedan/votesense/internal/sentiment"
)

type Options struct {
	// StripMarkup reduces markdown and links to plain text before normalization.
	StripMarkup bool
	Logger      *slog.Logger
}

// Pipeline holds no per-run state, so one value may serve concurrent runs as long as its scorer can.
type Pipeline struct {
	scorer sentiment.Scorer
	opts   Options
}

func New(scorer sentiment.Scorer, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{scorer: scorer, opts: opts}
}

// Run selects the text column, then normalizes, scores and categorizes every record. Only structural
// problems fail the run; a record that cannot be scored cleanly is scored neutral and reported as an
// anomaly.
func (p *Pipeline) Run(ds models.Dataset) (*models.EnrichedDataset, error) {
	start := time.Now()
	ds = dataset.InferTypes(ds)

	textColumn, err := dataset.SelectTextColumn(ds.Columns)
	if err != nil {
		return nil, err
	}
	if len(ds.Records) == 0 {
		return nil, fmt.Errorf("%w: column %q has no rows", models.ErrEmptyDataset, textColumn)
	}

	run := &runState{
		normalized: make([]string, len(ds.Records)),
		scores:     make([]float64, len(ds.Records)),
	}

	for i, record := range ds.Records {
		run.normalized[i] = p.normalizeRow(run, i, record.Get(textColumn))
	}

	batched := false
	if batcher, ok := p.scorer.(sentiment.BatchScorer); ok {
		batched = p.scoreBatch(run, batcher)
	}
	if !batched {
		for i, text := range run.normalized {
			run.scores[i] = p.scoreRow(run, i, text)
		}
	}

	enriched := &models.EnrichedDataset{
		Columns:    slices.Clone(ds.Columns),
		TextColumn: textColumn,
		Records:    make([]models.EnrichedRecord, len(ds.Records)),
	}
	for i, record := range ds.Records {
		score := run.scores[i]
		category, err := sentiment.Categorize(score)
		if err != nil {
			run.anomaly(i, err.Error())
			score, category = 0, models.CategoryNeutral
		}

		enriched.Records[i] = models.EnrichedRecord{
			Record:            record.Clone(),
			NormalizedText:    run.normalized[i],
			SentimentScore:    score,
			SentimentCategory: category,
		}
	}

	slices.SortStableFunc(run.anomalies, func(a, b models.RowAnomaly) int { return a.Row - b.Row })
	enriched.Anomalies = run.anomalies

	p.opts.Logger.Info("[Pipeline] Dataset analyzed",
		slog.String("text_column", textColumn),
		slog.Int("records", len(enriched.Records)),
		slog.Int("anomalies", len(enriched.Anomalies)),
		slog.Duration("elapsed", time.Since(start)))

	return enriched, nil
}

type runState struct {
	normalized []string
	scores     []float64
	anomalies  []models.RowAnomaly
}

func (r *runState) anomaly(row int, reason string) {
	r.anomalies = append(r.anomalies, models.RowAnomaly{Row: row, Reason: reason})
}

func (p *Pipeline) normalizeRow(run *runState, row int, cell models.Cell) (normalized string) {
	defer func() {
		if rec := recover(); rec != nil {
			run.anomaly(row, fmt.Sprintf("normalization panicked: %v", rec))
			normalized = ""
		}
	}()

	text, ok := cell.AsText()
	if !ok {
		run.anomaly(row, cell.Kind.String()+" value in text column")
		return ""
	}
	if p.opts.StripMarkup {
		text = sentiment.StripMarkup(text)
	}
	return sentiment.NormalizeText(text)
}

func (p *Pipeline) scoreRow(run *runState, row int, text string) (score float64) {
	defer func() {
		if rec := recover(); rec != nil {
			run.anomaly(row, fmt.Sprintf("scorer panicked: %v", rec))
			score = 0
		}
	}()

	score, err := sentiment.Score(p.scorer, text)
	if err != nil {
		p.opts.Logger.Debug("[Pipeline] Scoring failed, using neutral score",
			slog.Int("row", row),
			slog.String("error", err.Error()))
		run.anomaly(row, "scoring failed: "+err.Error())
		return 0
	}
	return score
}

// scoreBatch scores every non-blank text in one call. It reports false when the batch call fails, in
// which case the caller falls back to scoring row by row.
func (p *Pipeline) scoreBatch(run *runState, batcher sentiment.BatchScorer) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			p.opts.Logger.Warn("[Pipeline] Batch scorer panicked, scoring rows individually",
				slog.Any("panic", rec))
			ok = false
		}
	}()

	var rows []int
	var texts []string
	for i, text := range run.normalized {
		if text == "" {
			continue
		}
		rows = append(rows, i)
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return true
	}

	scores, err := batcher.PolarityBatch(texts)
	if err != nil || len(scores) != len(texts) {
		attrs := []any{slog.Int("texts", len(texts)), slog.Int("scores", len(scores))}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		p.opts.Logger.Warn("[Pipeline] Batch scoring failed, scoring rows individually", attrs...)
		return false
	}

	for j, row := range rows {
		run.scores[row] = sentiment.ClampPolarity(scores[j])
	}
	return true
}
