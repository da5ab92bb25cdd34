package sentiment

import (
	"regexp"
	"strings"

	"github.com/spacesedan/votesense/internal/models"
)

var (
	// anything that is not a letter, digit or whitespace, underscore included
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	digitPattern   = regexp.MustCompile(`\p{N}+`)
)

// Normalize cleans the text held by a cell. Cells that do not hold text normalize to "".
func Normalize(c models.Cell) string {
	text, ok := c.AsText()
	if !ok {
		return ""
	}
	return NormalizeText(text)
}

// NormalizeText strips punctuation and digits, lowercases, and drops English stopwords.
func NormalizeText(text string) string {
	text = nonWordPattern.ReplaceAllString(text, "")
	text = digitPattern.ReplaceAllString(text, "")
	text = strings.ToLower(text)

	tokens := strings.Fields(text)
	kept := tokens[:0]
	for _, token := range tokens {
		if IsStopword(token) {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}
