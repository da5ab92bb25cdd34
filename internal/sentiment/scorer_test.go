package sentiment

import (
	"errors"
	"math"
	"testing"

	"github.com/spacesedan/votesense/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	polarity float64
	err      error
	calls    int
}

func (s *stubScorer) Polarity(string) (float64, error) {
	s.calls++
	return s.polarity, s.err
}

func TestScoreBlankInputIsNeutralSentinel(t *testing.T) {
	stub := &stubScorer{polarity: 0.9}

	for _, text := range []string{"", "   ", "\t\n"} {
		score, err := Score(stub, text)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	}
	assert.Zero(t, stub.calls, "blank text must not reach the scorer")
}

func TestScoreCellNonText(t *testing.T) {
	stub := &stubScorer{polarity: -0.8}

	for _, c := range []models.Cell{models.NumberCell(3.5), models.MissingCell()} {
		score, err := ScoreCell(stub, c)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	}

	score, err := ScoreCell(stub, models.TextCell("awful"))
	require.NoError(t, err)
	assert.Equal(t, -0.8, score)
}

func TestScoreClampsAndPropagatesErrors(t *testing.T) {
	score, err := Score(&stubScorer{polarity: 3}, "text")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	score, err = Score(&stubScorer{polarity: -7}, "text")
	require.NoError(t, err)
	assert.Equal(t, -1.0, score)

	score, err = Score(&stubScorer{polarity: math.NaN()}, "text")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	boom := errors.New("boom")
	_, err = Score(&stubScorer{err: boom}, "text")
	assert.ErrorIs(t, err, boom)
}

func TestVaderScorerPolarity(t *testing.T) {
	scorer := NewVaderScorer()

	tests := []struct {
		text string
		sign int
	}{
		{"love candidate", 1},
		{"hate policy", -1},
		{"great wonderful speech", 1},
		{"terrible corrupt disaster", -1},
		{"candidate policy", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			score, err := Score(scorer, tt.text)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, -1.0)
			assert.LessOrEqual(t, score, 1.0)
			switch tt.sign {
			case 1:
				assert.Greater(t, score, 0.3)
			case -1:
				assert.Less(t, score, -0.3)
			default:
				assert.InDelta(t, 0.0, score, 0.05)
			}
		})
	}
}

func TestVaderScorerDeterministic(t *testing.T) {
	a, err := Score(NewVaderScorer(), "strong debate performance")
	require.NoError(t, err)
	b, err := Score(NewVaderScorer(), "strong debate performance")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestVaderScoreRange(t *testing.T) {
	scorer := NewVaderScorer()
	texts := []string{
		"love love love love love amazing fantastic wonderful best",
		"hate hate hate awful terrible worst disaster horrible",
		"ok", "meh", "rally", "good bad good bad",
	}
	for _, text := range texts {
		score, err := Score(scorer, NormalizeText(text))
		require.NoError(t, err)
		assert.True(t, score >= -1 && score <= 1, "score %v out of range for %q", score, text)
	}
}

func TestNewScorer(t *testing.T) {
	s, err := NewScorer("")
	require.NoError(t, err)
	assert.IsType(t, &VaderScorer{}, s)

	s, err = NewScorer(" VADER ")
	require.NoError(t, err)
	assert.IsType(t, &VaderScorer{}, s)

	_, err = NewScorer("textblob")
	assert.ErrorContains(t, err, "unknown scorer")
}

func TestRegisterScorer(t *testing.T) {
	t.Cleanup(func() {
		scorerRegistryMu.Lock()
		delete(scorerRegistry, "constant")
		scorerRegistryMu.Unlock()
	})

	_, err := NewScorer("constant")
	require.Error(t, err)

	RegisterScorer("Constant", func() (Scorer, error) { return &stubScorer{polarity: 0.5}, nil })
	s, err := NewScorer(" constant ")
	require.NoError(t, err)
	p, err := s.Polarity("anything")
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
}
