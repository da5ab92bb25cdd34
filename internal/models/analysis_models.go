package models

import "time"

const (
	SourceCSV    = "csv"
	SourceReddit = "reddit"
)

// AnalysisRequest is one dataset submitted for analysis over Kafka.
type AnalysisRequest struct {
	RequestID string    `json:"request_id"`
	Source    string    `json:"source"`
	Query     string    `json:"query,omitempty"`
	Dataset   Dataset   `json:"dataset"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is everything a single analysis run produced.
type Report struct {
	RunID       string
	RequestID   string
	Source      string
	Query       string
	Enriched    *EnrichedDataset
	Summary     Summary
	Elapsed     time.Duration
	CompletedAt time.Time
}

// AnalysisResult is the published and stored form of a run. Failed runs carry Error and no Summary.
type AnalysisResult struct {
	RunID       string   `json:"run_id" dynamodbav:"run_id"`
	RequestID   string   `json:"request_id" dynamodbav:"request_id"`
	Source      string   `json:"source" dynamodbav:"source"`
	Query       string   `json:"query,omitempty" dynamodbav:"query,omitempty"`
	TextColumn  string   `json:"text_column,omitempty" dynamodbav:"text_column,omitempty"`
	Summary     *Summary `json:"summary,omitempty" dynamodbav:"summary,omitempty"`
	Anomalies   int      `json:"anomalies" dynamodbav:"anomalies"`
	Error       string   `json:"error,omitempty" dynamodbav:"error,omitempty"`
	CompletedAt int64    `json:"completed_at" dynamodbav:"completed_at"`
	ExpiresAt   int64    `json:"-" dynamodbav:"ttl,omitempty"`
}

func (r Report) Result() AnalysisResult {
	summary := r.Summary
	result := AnalysisResult{
		RunID:       r.RunID,
		RequestID:   r.RequestID,
		Source:      r.Source,
		Query:       r.Query,
		Summary:     &summary,
		CompletedAt: r.CompletedAt.Unix(),
	}
	if r.Enriched != nil {
		result.TextColumn = r.Enriched.TextColumn
		result.Anomalies = len(r.Enriched.Anomalies)
	}
	return result
}

// FailedResult builds the result published for a request whose run aborted.
func FailedResult(req AnalysisRequest, runID string, err error, at time.Time) AnalysisResult {
	return AnalysisResult{
		RunID:       runID,
		RequestID:   req.RequestID,
		Source:      req.Source,
		Query:       req.Query,
		Error:       UserMessage(err),
		CompletedAt: at.Unix(),
	}
}
