package dataset

import (
	"fmt"
	"strings"

	"github.com/spacesedan/votesense/internal/models"
)

// PreferredTextColumns are column names that win over any type-based guess.
var PreferredTextColumns = []string{"text", "comment", "message", "tweet", "statement", "content"}

func isPreferred(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range PreferredTextColumns {
		if name == p {
			return true
		}
	}
	return false
}

// SelectTextColumn picks the column to analyze: the first column with a preferred name, otherwise the
// first text-typed column.
func SelectTextColumn(columns []models.Column) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: table has no columns", models.ErrNoTextColumn)
	}

	for _, c := range columns {
		if isPreferred(c.Name) {
			return c.Name, nil
		}
	}

	for _, c := range columns {
		if c.Type == models.ColumnText {
			return c.Name, nil
		}
	}

	return "", fmt.Errorf("%w: none of %d columns hold text", models.ErrNoTextColumn, len(columns))
}
