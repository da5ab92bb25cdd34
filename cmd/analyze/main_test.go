package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spacesedan/votesense/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const commentsCSV = `id,tweet,likes
1,I love this candidate,10
2,I hate this policy,3
3,It is what it is,0
`

func TestAnalyzePrintsSummary(t *testing.T) {
	out, err := execute(t, writeFile(t, "comments.csv", commentsCSV))
	require.NoError(t, err)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Summary)
	assert.Equal(t, "tweet", result.TextColumn)
	assert.Equal(t, "comments.csv", result.RequestID)
	assert.Equal(t, 3, result.Summary.TotalRecords)
	assert.Equal(t, map[models.Category]int{
		models.CategoryPositive: 1,
		models.CategoryNegative: 1,
		models.CategoryNeutral:  1,
	}, result.Summary.SentimentCounts)
}

func TestAnalyzeEnrichedCSV(t *testing.T) {
	out, err := execute(t, "--enriched", writeFile(t, "comments.csv", commentsCSV))
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"id", "tweet", "likes", "normalized_text", "sentiment_score", "sentiment_category"}, rows[0])
	assert.Equal(t, "love candidate", rows[1][3])
	assert.Equal(t, "Positive", rows[1][5])
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := execute(t, writeFile(t, "comments.txt", commentsCSV))
	assert.ErrorContains(t, err, "only .csv files")

	_, err = execute(t, writeFile(t, "numbers.csv", "a,b\n1,2\n3,4\n"))
	assert.ErrorIs(t, err, models.ErrNoTextColumn)
	assert.ErrorContains(t, err, "Could not identify a text column in the CSV file.")

	_, err = execute(t, writeFile(t, "empty.csv", "text\n"))
	assert.ErrorIs(t, err, models.ErrEmptyDataset)

	_, err = execute(t, "--max-records", "2", writeFile(t, "comments.csv", commentsCSV))
	assert.ErrorIs(t, err, models.ErrTooManyRecords)
}

func TestAnalyzeRejectsUnknownScorer(t *testing.T) {
	_, err := execute(t, "--scorer", "textblob", writeFile(t, "comments.csv", commentsCSV))
	assert.Error(t, err)
}
