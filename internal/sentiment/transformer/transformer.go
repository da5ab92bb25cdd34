// Package transformer scores polarity with an ONNX text classification model through hugot. It is kept
// apart from package sentiment so only binaries that register it link the ONNX runtime.
package transformer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/votesense/internal/sentiment"
)

const (
	DefaultModel    = "KnightsAnalytics/distilbert-base-uncased-finetuned-sst-2-english"
	DefaultModelDir = "./models"
)

type Config struct {
	ModelName string
	ModelDir  string
}

// Scorer's polarity is the probability of the top label, signed by whether that label is positive or
// negative.
type Scorer struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.Mutex
}

// Register makes the transformer available to sentiment.NewScorer under sentiment.ScorerTransformer.
// The model is only loaded once the scorer is requested.
func Register(cfg Config) {
	sentiment.RegisterScorer(sentiment.ScorerTransformer, func() (sentiment.Scorer, error) {
		return New(cfg)
	})
}

func New(cfg Config) (*Scorer, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModel
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = DefaultModelDir
	}

	modelPath, err := ensureModel(cfg)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[TransformerScorer] failed to initialize hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "votesenseSentimentPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			slog.Warn("[TransformerScorer] Failed to destroy session",
				slog.String("error", destroyErr.Error()))
		}
		return nil, fmt.Errorf("[TransformerScorer] failed to initialize pipeline: %w", err)
	}

	slog.Info("[TransformerScorer] Pipeline ready", slog.String("model", cfg.ModelName))
	return &Scorer{session: session, pipeline: pipeline}, nil
}

func ensureModel(cfg Config) (string, error) {
	if err := os.MkdirAll(cfg.ModelDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("[TransformerScorer] failed to create model directory: %w", err)
	}

	localPath := filepath.Join(cfg.ModelDir, strings.ReplaceAll(cfg.ModelName, "/", "_"))
	if _, err := os.Stat(localPath); err == nil {
		slog.Info("[TransformerScorer] Using existing model", slog.String("path", localPath))
		return localPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("[TransformerScorer] failed to stat model: %w", err)
	}

	slog.Info("[TransformerScorer] Model not found, downloading...", slog.String("model", cfg.ModelName))
	modelPath, err := hugot.DownloadModel(cfg.ModelName, cfg.ModelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("[TransformerScorer] failed to download model: %w", err)
	}
	slog.Info("[TransformerScorer] Model downloaded successfully", slog.String("path", modelPath))
	return modelPath, nil
}

func (t *Scorer) Polarity(text string) (float64, error) {
	scores, err := t.PolarityBatch([]string{text})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

func (t *Scorer) PolarityBatch(texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	t.mu.Lock()
	output, err := t.pipeline.RunPipeline(texts)
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("[TransformerScorer] pipeline run failed: %w", err)
	}
	if len(output.ClassificationOutputs) != len(texts) {
		return nil, fmt.Errorf("[TransformerScorer] expected %d outputs, got %d",
			len(texts), len(output.ClassificationOutputs))
	}

	scores := make([]float64, len(texts))
	for i, labels := range output.ClassificationOutputs {
		if len(labels) == 0 {
			continue
		}
		scores[i] = signedLabelScore(labels[0].Label, float64(labels[0].Score))
	}
	return scores, nil
}

// signedLabelScore maps a classifier label and its probability onto [-1, 1].
func signedLabelScore(label string, probability float64) float64 {
	label = strings.ToLower(label)
	switch {
	case strings.Contains(label, "pos"):
		return sentiment.ClampPolarity(probability)
	case strings.Contains(label, "neg"):
		return sentiment.ClampPolarity(-probability)
	default:
		return 0
	}
}

func (t *Scorer) Close() error {
	if t.session == nil {
		return nil
	}
	return t.session.Destroy()
}
