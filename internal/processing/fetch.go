// Package processing collects election posts from Reddit and turns them into analysis requests.
package processing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/votesense/internal/dataset"
	"github.com/spacesedan/votesense/internal/models"
)

const SEARCH_RETRIES = 3

type PostSearcher interface {
	SearchPosts(ctx context.Context, subreddit, query string) ([]models.RedditPost, error)
}

type Deduper interface {
	IsProcessed(ctx context.Context, source string, key string) bool
	MarkProcessed(ctx context.Context, source string, key string) error
}

type Publisher func(ctx context.Context, topic string, key string, value any) error

type CollectorOptions struct {
	Topic      string
	Queries    []string
	Subreddits []string
	// MaxRecords splits a query's posts into several requests. 0 keeps them together.
	MaxRecords int
	// Dedup is optional.
	Dedup Deduper
}

type Collector struct {
	searcher   PostSearcher
	publish    Publisher
	opts       CollectorOptions
	retryDelay time.Duration
	now        func() time.Time
	newID      func() string
}

func NewCollector(searcher PostSearcher, publish Publisher, opts CollectorOptions) *Collector {
	return &Collector{
		searcher:   searcher,
		publish:    publish,
		opts:       opts,
		retryDelay: 2 * time.Second,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// FetchRedditContent searches every subreddit for every query and publishes one analysis request per query
// with the posts not seen in the last day. It returns the number of requests published.
func (c *Collector) FetchRedditContent(ctx context.Context) (int, error) {
	slog.Info("[Collector] Fetching Reddit content...",
		slog.Int("queries", len(c.opts.Queries)),
		slog.Int("subreddits", len(c.opts.Subreddits)))

	published := 0
	for _, query := range c.opts.Queries {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		posts := c.freshPosts(ctx, query)
		if len(posts) == 0 {
			slog.Debug("[Collector] No new posts", slog.String("query", query))
			continue
		}

		for _, chunk := range chunkPosts(posts, c.opts.MaxRecords) {
			if err := c.publishRequest(ctx, query, chunk); err != nil {
				slog.Warn("[Collector] Failed to publish analysis request",
					slog.String("query", query),
					slog.Int("posts", len(chunk)),
					slog.String("error", err.Error()))
				continue
			}
			published++
		}
	}

	slog.Info("[Collector] Successfully fetched & sent Reddit content to Kafka", slog.Int("requests", published))
	return published, nil
}

func (c *Collector) freshPosts(ctx context.Context, query string) []models.RedditPost {
	seen := make(map[string]bool)
	var posts []models.RedditPost

	for _, subreddit := range c.opts.Subreddits {
		found, err := c.search(ctx, subreddit, query)
		if err != nil {
			slog.Warn("[Collector] Failed to fetch Reddit posts",
				slog.String("subreddit", subreddit),
				slog.String("query", query),
				slog.String("error", err.Error()))
			continue
		}

		for _, post := range found {
			if seen[post.PostID] {
				continue
			}
			seen[post.PostID] = true

			if c.opts.Dedup != nil && c.opts.Dedup.IsProcessed(ctx, models.SourceReddit, post.PostID) {
				slog.Debug("[Collector] Skipping duplicate post", slog.String("post_id", post.PostID))
				continue
			}
			posts = append(posts, post)
		}
	}
	return posts
}

func (c *Collector) search(ctx context.Context, subreddit, query string) ([]models.RedditPost, error) {
	var err error
	for attempt := 1; attempt <= SEARCH_RETRIES; attempt++ {
		var posts []models.RedditPost
		posts, err = c.searcher.SearchPosts(ctx, subreddit, query)
		if err == nil {
			return posts, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Debug("[Collector] Search failed, retrying",
			slog.String("subreddit", subreddit),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if attempt == SEARCH_RETRIES {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return nil, err
}

func (c *Collector) publishRequest(ctx context.Context, query string, posts []models.RedditPost) error {
	req := models.AnalysisRequest{
		RequestID: c.newID(),
		Source:    models.SourceReddit,
		Query:     query,
		Dataset:   dataset.FromRedditPosts(posts),
		CreatedAt: c.now().UTC(),
	}
	if err := c.publish(ctx, c.opts.Topic, req.RequestID, req); err != nil {
		return fmt.Errorf("[Collector] publish %s: %w", req.RequestID, err)
	}

	if c.opts.Dedup != nil {
		for _, post := range posts {
			if err := c.opts.Dedup.MarkProcessed(ctx, models.SourceReddit, post.PostID); err != nil {
				slog.Warn("[Collector] Failed to mark post processed",
					slog.String("post_id", post.PostID),
					slog.String("error", err.Error()))
			}
		}
	}
	return nil
}

func chunkPosts(posts []models.RedditPost, size int) [][]models.RedditPost {
	if size <= 0 || len(posts) <= size {
		return [][]models.RedditPost{posts}
	}
	var chunks [][]models.RedditPost
	for i := 0; i < len(posts); i += size {
		chunks = append(chunks, posts[i:min(i+size, len(posts))])
	}
	return chunks
}
