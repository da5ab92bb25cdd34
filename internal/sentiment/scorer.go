package sentiment

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/spacesedan/votesense/internal/models"
)

const (
	ScorerVADER       = "vader"
	ScorerTransformer = "transformer"
)

// Scorer estimates net positive-vs-negative affect of a piece of text.
type Scorer interface {
	Polarity(text string) (float64, error)
}

// BatchScorer is implemented by scorers that are cheaper to call once per dataset than once per row.
// The returned slice is index-aligned with texts.
type BatchScorer interface {
	Scorer
	PolarityBatch(texts []string) ([]float64, error)
}

// Score guards a Scorer: blank text is exactly 0.0 without consulting the scorer and the result is
// kept inside [-1, 1].
func Score(s Scorer, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	p, err := s.Polarity(text)
	if err != nil {
		return 0, err
	}
	return ClampPolarity(p), nil
}

// ScoreCell scores the text of a cell; any non-text cell scores 0.0.
func ScoreCell(s Scorer, c models.Cell) (float64, error) {
	text, ok := c.AsText()
	if !ok {
		return 0, nil
	}
	return Score(s, text)
}

func ClampPolarity(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(-1, math.Min(1, p))
}

type ScorerFactory func() (Scorer, error)

var (
	scorerRegistry = map[string]ScorerFactory{
		ScorerVADER: func() (Scorer, error) { return NewVaderScorer(), nil },
	}
	scorerRegistryMu sync.RWMutex
)

// RegisterScorer makes a scoring strategy available to NewScorer, replacing any earlier one of that name.
func RegisterScorer(name string, factory ScorerFactory) {
	scorerRegistryMu.Lock()
	defer scorerRegistryMu.Unlock()
	scorerRegistry[strings.ToLower(name)] = factory
}

// NewScorer builds the named scoring strategy. An empty name is VADER.
func NewScorer(name string) (Scorer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = ScorerVADER
	}

	scorerRegistryMu.RLock()
	factory, ok := scorerRegistry[name]
	scorerRegistryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("[Sentiment] unknown scorer %q", name)
	}
	return factory()
}
