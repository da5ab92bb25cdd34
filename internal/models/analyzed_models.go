package models

import (
	"strconv"
)

type Category string

const (
	CategoryNegative Category = "Negative"
	CategoryNeutral  Category = "Neutral"
	CategoryPositive Category = "Positive"
)

// Categories lists every category in bin order.
var Categories = []Category{CategoryNegative, CategoryNeutral, CategoryPositive}

// Derived column names appended to an enriched table, in append order.
const (
	ColumnNormalizedText    = "normalized_text"
	ColumnSentimentScore    = "sentiment_score"
	ColumnSentimentCategory = "sentiment_category"
)

type EnrichedRecord struct {
	Record            Record   `json:"record"`
	NormalizedText    string   `json:"normalized_text"`
	SentimentScore    float64  `json:"sentiment_score"`
	SentimentCategory Category `json:"sentiment_category"`
}

// RowAnomaly describes a record that could not be scored cleanly and was neutral-scored instead.
type RowAnomaly struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type EnrichedDataset struct {
	Columns    []Column         `json:"columns"`
	TextColumn string           `json:"text_column"`
	Records    []EnrichedRecord `json:"records"`
	Anomalies  []RowAnomaly     `json:"anomalies,omitempty"`
}

// Header returns the original column names followed by the derived columns. A derived name that
// already exists in the input keeps its original position.
func (e *EnrichedDataset) Header() []string {
	header := make([]string, 0, len(e.Columns)+3)
	seen := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		header = append(header, c.Name)
		seen[c.Name] = true
	}
	for _, name := range []string{ColumnNormalizedText, ColumnSentimentScore, ColumnSentimentCategory} {
		if !seen[name] {
			header = append(header, name)
		}
	}
	return header
}

// Rows renders every enriched record as strings in Header order.
func (e *EnrichedDataset) Rows() [][]string {
	header := e.Header()
	rows := make([][]string, 0, len(e.Records))
	for _, r := range e.Records {
		row := make([]string, len(header))
		for i, name := range header {
			switch name {
			case ColumnNormalizedText:
				row[i] = r.NormalizedText
			case ColumnSentimentScore:
				row[i] = strconv.FormatFloat(r.SentimentScore, 'f', -1, 64)
			case ColumnSentimentCategory:
				row[i] = string(r.SentimentCategory)
			default:
				row[i] = r.Record.Get(name).String()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (e *EnrichedDataset) Scores() []float64 {
	scores := make([]float64, len(e.Records))
	for i, r := range e.Records {
		scores[i] = r.SentimentScore
	}
	return scores
}
