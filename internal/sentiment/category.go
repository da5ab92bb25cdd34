package sentiment

import (
	"errors"
	"fmt"
	"math"

	"github.com/spacesedan/votesense/internal/models"
)

var ErrScoreOutOfRange = errors.New("score outside category bins")

type categoryBin struct {
	upper    float64
	category models.Category
}

// Bins are (lower, upper]: a score belongs to the first bin whose upper bound it does not exceed.
// The outer edges only exist to contain the legal [-1, 1] range.
const binLowerEdge = -1.1

var categoryBins = []categoryBin{
	{upper: -0.3, category: models.CategoryNegative},
	{upper: 0.3, category: models.CategoryNeutral},
	{upper: 1.1, category: models.CategoryPositive},
}

func Categorize(score float64) (models.Category, error) {
	if math.IsNaN(score) || score <= binLowerEdge {
		return "", fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}
	for _, bin := range categoryBins {
		if score <= bin.upper {
			return bin.category, nil
		}
	}
	return "", fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
}
