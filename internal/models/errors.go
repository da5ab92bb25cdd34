package models

import "errors"

var (
	// ErrNoTextColumn means no column of the table is suitable for analysis.
	ErrNoTextColumn = errors.New("no text column found")
	// ErrEmptyDataset means the table has no records to aggregate.
	ErrEmptyDataset = errors.New("dataset has no records")
	// ErrMalformedInput is returned by ingestion for non-tabular or unreadable input.
	ErrMalformedInput = errors.New("malformed input")
	// ErrTooManyRecords is returned when a host-imposed record limit is exceeded.
	ErrTooManyRecords = errors.New("dataset exceeds record limit")
)

// UserMessage maps a failed run to the message shown to whoever submitted the dataset.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoTextColumn):
		return "Could not identify a text column in the CSV file."
	case errors.Is(err, ErrEmptyDataset):
		return "The uploaded file does not contain any records to analyze."
	case errors.Is(err, ErrMalformedInput):
		return "The uploaded file could not be read as a CSV table."
	case errors.Is(err, ErrTooManyRecords):
		return "The uploaded file contains too many records to analyze."
	default:
		return "Error processing CSV: " + err.Error()
	}
}
