package pipeline

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spacesedan/votesense/internal/models"
	"github.com/spacesedan/votesense/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestPipeline(scorer sentiment.Scorer) *Pipeline {
	return New(scorer, Options{Logger: quietLogger})
}

// keywordScorer returns the score of the first keyword found in the text.
type keywordScorer struct {
	scores  map[string]float64
	failOn  string
	panicOn string
	seen    []string
}

func (k *keywordScorer) Polarity(text string) (float64, error) {
	k.seen = append(k.seen, text)
	if k.panicOn != "" && strings.Contains(text, k.panicOn) {
		panic("lexicon corrupted")
	}
	if k.failOn != "" && strings.Contains(text, k.failOn) {
		return 0, errors.New("cannot score")
	}
	for word, score := range k.scores {
		if strings.Contains(text, word) {
			return score, nil
		}
	}
	return 0, nil
}

type batchScorer struct {
	keywordScorer
	batchErr   error
	batchCalls int
}

func (b *batchScorer) PolarityBatch(texts []string) ([]float64, error) {
	b.batchCalls++
	if b.batchErr != nil {
		return nil, b.batchErr
	}
	out := make([]float64, len(texts))
	for i, text := range texts {
		out[i], _ = b.keywordScorer.Polarity(text)
	}
	return out, nil
}

func tweets(texts ...any) models.Dataset {
	ds := models.Dataset{Columns: []models.Column{{Name: "id"}, {Name: "tweet"}}}
	for i, v := range texts {
		cell := models.MissingCell()
		switch t := v.(type) {
		case string:
			cell = models.TextCell(t)
		case float64:
			cell = models.NumberCell(t)
		}
		ds.Records = append(ds.Records, models.Record{"id": models.NumberCell(float64(i + 1)), "tweet": cell})
	}
	return ds
}

func TestRunScoresEveryRecordWithVader(t *testing.T) {
	p := newTestPipeline(sentiment.NewVaderScorer())

	enriched, err := p.Run(tweets("I love this candidate", "I hate this policy", "It is what it is"))
	require.NoError(t, err)

	assert.Equal(t, "tweet", enriched.TextColumn)
	require.Len(t, enriched.Records, 3)

	love, hate, neutral := enriched.Records[0], enriched.Records[1], enriched.Records[2]
	assert.Equal(t, "love candidate", love.NormalizedText)
	assert.Greater(t, love.SentimentScore, 0.0)
	assert.Equal(t, models.CategoryPositive, love.SentimentCategory)

	assert.Equal(t, "hate policy", hate.NormalizedText)
	assert.Less(t, hate.SentimentScore, 0.0)
	assert.Equal(t, models.CategoryNegative, hate.SentimentCategory)

	assert.Equal(t, "", neutral.NormalizedText)
	assert.Equal(t, 0.0, neutral.SentimentScore)
	assert.Equal(t, models.CategoryNeutral, neutral.SentimentCategory)

	assert.Empty(t, enriched.Anomalies)
}

func TestRunNoTextColumn(t *testing.T) {
	ds := models.Dataset{
		Columns: []models.Column{{Name: "votes"}, {Name: "turnout"}},
		Records: []models.Record{
			{"votes": models.NumberCell(120), "turnout": models.NumberCell(0.61)},
			{"votes": models.NumberCell(98), "turnout": models.NumberCell(0.57)},
		},
	}

	enriched, err := newTestPipeline(&keywordScorer{}).Run(ds)
	assert.ErrorIs(t, err, models.ErrNoTextColumn)
	assert.Nil(t, enriched)
}

func TestRunNonTextCellIsNeutral(t *testing.T) {
	scorer := &keywordScorer{scores: map[string]float64{"great": 0.8}}

	enriched, err := newTestPipeline(scorer).Run(tweets("great rally", 2024.0, nil))
	require.NoError(t, err)
	require.Len(t, enriched.Records, 3)

	for _, i := range []int{1, 2} {
		assert.Equal(t, "", enriched.Records[i].NormalizedText)
		assert.Equal(t, 0.0, enriched.Records[i].SentimentScore)
		assert.Equal(t, models.CategoryNeutral, enriched.Records[i].SentimentCategory)
	}
	assert.Equal(t, []models.RowAnomaly{
		{Row: 1, Reason: "number value in text column"},
		{Row: 2, Reason: "missing value in text column"},
	}, enriched.Anomalies)
	assert.Equal(t, []string{"great rally"}, scorer.seen, "blank texts must not reach the scorer")
}

func TestRunEmptyDataset(t *testing.T) {
	ds := models.Dataset{Columns: []models.Column{{Name: "text", Type: models.ColumnText}}}

	enriched, err := newTestPipeline(&keywordScorer{}).Run(ds)
	assert.ErrorIs(t, err, models.ErrEmptyDataset)
	assert.Nil(t, enriched)
}

func TestRunRowFailuresDoNotAbort(t *testing.T) {
	scorer := &keywordScorer{
		scores:  map[string]float64{"good": 0.5, "bad": -0.5},
		failOn:  "glitch",
		panicOn: "explode",
	}

	enriched, err := newTestPipeline(scorer).Run(tweets("good", "glitch here", "explode now", "bad"))
	require.NoError(t, err)
	require.Len(t, enriched.Records, 4)

	categories := make([]models.Category, 0, 4)
	for _, r := range enriched.Records {
		categories = append(categories, r.SentimentCategory)
	}
	assert.Equal(t, []models.Category{
		models.CategoryPositive, models.CategoryNeutral, models.CategoryNeutral, models.CategoryNegative,
	}, categories)

	require.Len(t, enriched.Anomalies, 2)
	assert.Equal(t, 1, enriched.Anomalies[0].Row)
	assert.Contains(t, enriched.Anomalies[0].Reason, "cannot score")
	assert.Equal(t, 2, enriched.Anomalies[1].Row)
	assert.Contains(t, enriched.Anomalies[1].Reason, "panicked")
}

func TestRunCategoryBoundaries(t *testing.T) {
	scorer := &keywordScorer{scores: map[string]float64{"low": -0.3, "mid": 0.3, "high": 0.31}}

	enriched, err := newTestPipeline(scorer).Run(tweets("low", "mid", "high"))
	require.NoError(t, err)

	assert.Equal(t, models.CategoryNegative, enriched.Records[0].SentimentCategory)
	assert.Equal(t, models.CategoryNeutral, enriched.Records[1].SentimentCategory)
	assert.Equal(t, models.CategoryPositive, enriched.Records[2].SentimentCategory)
}

func TestRunPreservesInputAndOrder(t *testing.T) {
	ds := models.Dataset{
		Columns: []models.Column{{Name: "author"}, {Name: "Comment"}, {Name: "likes"}},
		Records: []models.Record{
			{"author": models.TextCell("ann"), "Comment": models.TextCell("Good plan"), "likes": models.NumberCell(3)},
			{"author": models.TextCell("bob"), "Comment": models.TextCell("Bad plan"), "likes": models.NumberCell(1)},
		},
	}
	scorer := &keywordScorer{scores: map[string]float64{"good": 0.6, "bad": -0.6}}

	enriched, err := newTestPipeline(scorer).Run(ds)
	require.NoError(t, err)

	assert.Equal(t, "Comment", enriched.TextColumn)
	assert.Equal(t, []string{"author", "Comment", "likes", "normalized_text", "sentiment_score", "sentiment_category"},
		enriched.Header())
	assert.Equal(t, models.TextCell("ann"), enriched.Records[0].Record["author"])
	assert.Equal(t, models.TextCell("bob"), enriched.Records[1].Record["author"])

	enriched.Records[0].Record["author"] = models.TextCell("changed")
	assert.Equal(t, models.TextCell("ann"), ds.Records[0]["author"], "input records must not be shared")
	assert.Empty(t, ds.Columns[0].Type, "input columns must not be modified")
}

func TestRunUsesBatchScorer(t *testing.T) {
	scorer := &batchScorer{keywordScorer: keywordScorer{scores: map[string]float64{"win": 0.9}}}

	enriched, err := newTestPipeline(scorer).Run(tweets("big win", "", "It is"))
	require.NoError(t, err)

	assert.Equal(t, 1, scorer.batchCalls)
	assert.Equal(t, []string{"big win"}, scorer.seen)
	assert.Equal(t, models.CategoryPositive, enriched.Records[0].SentimentCategory)
}

func TestRunBatchFailureFallsBackToRows(t *testing.T) {
	scorer := &batchScorer{
		keywordScorer: keywordScorer{scores: map[string]float64{"loss": -0.9}},
		batchErr:      errors.New("session closed"),
	}

	enriched, err := newTestPipeline(scorer).Run(tweets("painful loss"))
	require.NoError(t, err)

	assert.Equal(t, 1, scorer.batchCalls)
	assert.Equal(t, models.CategoryNegative, enriched.Records[0].SentimentCategory)
	assert.Empty(t, enriched.Anomalies)
}

func TestRunStripMarkup(t *testing.T) {
	scorer := &keywordScorer{}
	p := New(scorer, Options{StripMarkup: true, Logger: quietLogger})

	enriched, err := p.Run(tweets("**Huge** [turnout](https://example.com/x) today"))
	require.NoError(t, err)
	assert.Equal(t, "huge turnout today", enriched.Records[0].NormalizedText)

	enriched, err = newTestPipeline(scorer).Run(tweets("**Huge** [turnout](https://example.com/x) today"))
	require.NoError(t, err)
	assert.Equal(t, "huge turnouthttpsexamplecomx today", enriched.Records[0].NormalizedText)
}
