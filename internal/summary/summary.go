// Package summary aggregates an enriched dataset into category counts, percentages, a mean score and an
// election-outcome prediction.
package summary

import (
	"fmt"
	"math"

	"github.com/spacesedan/votesense/internal/models"
	"gonum.org/v1/gonum/stat"
)

// Mean scores strictly beyond these thresholds lean one way.
const (
	favorableThreshold   = 0.1
	challengingThreshold = -0.1
)

var predictions = map[models.Outcome]string{
	models.OutcomeFavorable:   "Positive public opinion likely indicates favorable election outcomes.",
	models.OutcomeChallenging: "Negative public opinion suggests challenging election prospects.",
	models.OutcomeContested:   "Mixed or neutral sentiment indicates a closely contested election.",
}

// Summarize computes the summary of every record. Percentages are rounded to two decimals and the mean to
// four, half away from zero; the prediction is taken from the unrounded mean.
func Summarize(enriched *models.EnrichedDataset) (models.Summary, error) {
	if enriched == nil || len(enriched.Records) == 0 {
		return models.Summary{}, fmt.Errorf("[Summary] nothing to summarize: %w", models.ErrEmptyDataset)
	}

	total := len(enriched.Records)
	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}
	for _, r := range enriched.Records {
		counts[r.SentimentCategory]++
	}

	percentages := make(map[models.Category]float64, len(counts))
	for c, n := range counts {
		percentages[c] = round(float64(n)/float64(total)*100, 2)
	}

	mean := stat.Mean(enriched.Scores(), nil)
	outcome := Predict(mean)

	return models.Summary{
		SentimentCounts: counts,
		Percentages:     percentages,
		AvgSentiment:    round(mean, 4),
		Prediction:      predictions[outcome],
		Outcome:         outcome,
		TotalRecords:    total,
	}, nil
}

// Predict classifies a mean polarity score.
func Predict(mean float64) models.Outcome {
	switch {
	case mean > favorableThreshold:
		return models.OutcomeFavorable
	case mean < challengingThreshold:
		return models.OutcomeChallenging
	default:
		return models.OutcomeContested
	}
}

// PredictionMessage returns the human readable sentence for an outcome.
func PredictionMessage(o models.Outcome) string {
	return predictions[o]
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
