package sentiment

import (
	"bufio"
	_ "embed"
	"log/slog"
	"strings"
	"sync"
)

//go:embed stopwords/english.txt
var englishStopwordList string

var (
	stopwordSet  map[string]struct{}
	stopwordOnce sync.Once
)

// Stopwords returns the English stopword set. It is built once and must be treated as read-only.
func Stopwords() map[string]struct{} {
	stopwordOnce.Do(func() {
		stopwordSet = make(map[string]struct{}, 200)
		scanner := bufio.NewScanner(strings.NewReader(englishStopwordList))
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" {
				continue
			}
			stopwordSet[word] = struct{}{}
		}
		slog.Debug("[Stopwords] Loaded English stopwords", slog.Int("count", len(stopwordSet)))
	})
	return stopwordSet
}

func IsStopword(token string) bool {
	_, ok := Stopwords()[token]
	return ok
}
