package models

// Outcome is the three-way classification behind a prediction message.
type Outcome string

const (
	OutcomeFavorable   Outcome = "favorable"
	OutcomeChallenging Outcome = "challenging"
	OutcomeContested   Outcome = "contested"
)

type Summary struct {
	SentimentCounts map[Category]int     `json:"sentiment_counts" dynamodbav:"sentiment_counts"`
	Percentages     map[Category]float64 `json:"percentages" dynamodbav:"percentages"`
	AvgSentiment    float64              `json:"avg_sentiment" dynamodbav:"avg_sentiment"`
	Prediction      string               `json:"prediction" dynamodbav:"prediction"`
	Outcome         Outcome              `json:"outcome" dynamodbav:"outcome"`
	TotalRecords    int                  `json:"total_records" dynamodbav:"total_records"`
}
