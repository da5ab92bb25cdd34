package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spacesedan/votesense/config"
	"github.com/spacesedan/votesense/internal/analysis"
	"github.com/spacesedan/votesense/internal/clients"
	"github.com/spacesedan/votesense/internal/dataset"
	"github.com/spacesedan/votesense/internal/db"
	"github.com/spacesedan/votesense/internal/logging"
	"github.com/spacesedan/votesense/internal/models"
	"github.com/spacesedan/votesense/internal/pipeline"
	"github.com/spacesedan/votesense/internal/sentiment"
	"github.com/spacesedan/votesense/internal/sentiment/transformer"
	"github.com/spf13/cobra"
)

type analyzeFlags struct {
	scorer      string
	stripMarkup bool
	maxRecords  int
	enriched    bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg   *config.Config
		flags analyzeFlags
	)

	root := &cobra.Command{
		Use:          "analyze <comments.csv>",
		Short:        "Score the sentiment of election comments in a CSV file",
		Long:         "Reads a CSV file, picks its text column, scores every row and prints the summary as JSON.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv(os.Getenv("APP_ENV"))
			c, err := config.Load()
			if err != nil {
				return err
			}
			slog.SetDefault(logging.NewLogger(cmd.ErrOrStderr(), c.LogLevel))

			if !cmd.Flags().Changed("scorer") {
				flags.scorer = c.Scorer
			}
			if !cmd.Flags().Changed("strip-markup") {
				flags.stripMarkup = c.StripMarkup
			}
			if !cmd.Flags().Changed("max-records") {
				flags.maxRecords = c.MaxRecords
			}
			cfg = c
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, flags)
		},
	}

	root.Flags().StringVar(&flags.scorer, "scorer", sentiment.ScorerVADER, "scoring strategy: vader or transformer")
	root.Flags().BoolVar(&flags.stripMarkup, "strip-markup", false, "reduce markdown and links to plain text before scoring")
	root.Flags().IntVar(&flags.maxRecords, "max-records", 0, "reject files with more records (0 disables the limit)")
	root.Flags().BoolVar(&flags.enriched, "enriched", false, "print the enriched table as CSV instead of the summary")

	root.AddCommand(newShowCmd(&cfg))
	return root
}

func runAnalyze(ctx context.Context, out io.Writer, path string, cfg *config.Config, flags analyzeFlags) error {
	if !dataset.AllowedFile(path) {
		return fmt.Errorf("[Analyze] %s: only .csv files are supported", path)
	}

	ds, err := dataset.ReadCSVFile(path)
	if err != nil {
		return fmt.Errorf("[Analyze] %s: %w", models.UserMessage(err), err)
	}

	transformer.Register(transformer.Config{
		ModelName: cfg.TransformerModel,
		ModelDir:  cfg.TransformerModelDir,
	})
	scorer, err := sentiment.NewScorer(flags.scorer)
	if err != nil {
		return err
	}
	if closer, ok := scorer.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Warn("[Analyze] Failed to close scorer", slog.String("error", err.Error()))
			}
		}()
	}

	analyzer := analysis.New(
		pipeline.New(scorer, pipeline.Options{StripMarkup: flags.stripMarkup}),
		analysis.Options{MaxRecords: flags.maxRecords},
	)

	report, err := analyzer.Analyze(ctx, models.AnalysisRequest{
		RequestID: filepath.Base(path),
		Source:    models.SourceCSV,
		Dataset:   ds,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", models.UserMessage(err), err)
	}

	if flags.enriched {
		return dataset.WriteCSV(out, report.Enriched)
	}
	return writeJSON(out, report.Result())
}

func newShowCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a stored run summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			client, err := clients.GetDynamoDBClient(cmd.Context(), clients.AWSOptions{
				Region:   c.AWSRegion,
				Endpoint: c.AWSEndpoint,
			})
			if err != nil {
				return err
			}

			result, err := db.NewResultStore(client, c.DynamoDBTable).GetRunSummary(cmd.Context(), args[0])
			if errors.Is(err, db.ErrRunNotFound) {
				return fmt.Errorf("no stored run with id %s", args[0])
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
