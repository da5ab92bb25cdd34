package dataset

import (
	"strings"
	"time"

	"github.com/spacesedan/votesense/internal/models"
)

// FromRedditPosts lays posts out as a table whose "text" column joins each title and body.
func FromRedditPosts(posts []models.RedditPost) models.Dataset {
	columns := []models.Column{
		{Name: "id", Type: models.ColumnText},
		{Name: "subreddit", Type: models.ColumnText},
		{Name: "author", Type: models.ColumnText},
		{Name: "text", Type: models.ColumnText},
		{Name: "upvotes", Type: models.ColumnNumeric},
		{Name: "created_at", Type: models.ColumnDate},
	}

	records := make([]models.Record, 0, len(posts))
	for _, p := range posts {
		text := strings.TrimSpace(strings.TrimSpace(p.PostTitle) + "\n\n" + strings.TrimSpace(p.PostContent))

		records = append(records, models.Record{
			"id":         models.TextCell(p.PostID),
			"subreddit":  models.TextCell(p.Subreddit),
			"author":     models.TextCell(p.Author),
			"text":       models.TextCell(text),
			"upvotes":    models.NumberCell(float64(p.Upvotes)),
			"created_at": models.TextCell(p.CreatedAt.UTC().Format(time.RFC3339)),
		})
	}

	return models.Dataset{Columns: columns, Records: records}
}
