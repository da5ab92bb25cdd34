package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/votesense/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
	REDDIT_LIMIT    = 100
)

var ErrRedditRateLimited = errors.New("reddit rate limit exceeded")

var redditRateLimitMutex sync.Mutex

type RedditClient struct {
	Config *clientcredentials.Config
	Client *http.Client
	apiURL string
	// pause spaces out consecutive requests across all goroutines.
	pause   time.Duration
	backoff time.Duration
	mu      sync.Mutex
}

func NewRedditClient(clientID, clientSecret string) *RedditClient {
	return newRedditClient(clientID, clientSecret, REDDIT_AUTH_URL, REDDIT_API_URL)
}

func newRedditClient(clientID, clientSecret, authURL, apiURL string) *RedditClient {
	oauthConf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     authURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &RedditClient{
		Config:  oauthConf,
		Client:  oauthConf.Client(context.Background()),
		apiURL:  strings.TrimRight(apiURL, "/"),
		pause:   INITIAL_BACKOFF,
		backoff: INITIAL_BACKOFF,
	}
}

func (rc *RedditClient) RefreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.Client = rc.Config.Client(context.Background())
}

func (rc *RedditClient) httpClient() *http.Client {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.Client
}

// SearchPosts returns the top posts of a subreddit matching query.
func (rc *RedditClient) SearchPosts(ctx context.Context, subreddit, query string) ([]models.RedditPost, error) {
	body, err := rc.FetchSubredditPosts(ctx, subreddit, query)
	if err != nil {
		return nil, err
	}

	var listing models.RedditAPIResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to decode listing: %w", err)
	}

	posts := make([]models.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Data.ID == "" {
			continue
		}
		posts = append(posts, child.Data.ToPost(query))
	}

	slog.Info("[RedditClient] Fetched posts",
		slog.String("subreddit", subreddit),
		slog.String("query", query),
		slog.Int("count", len(posts)))
	return posts, nil
}

// FetchSubredditPosts returns the raw search listing. An expired token is refreshed once; rate limited
// requests are retried with exponential backoff.
func (rc *RedditClient) FetchSubredditPosts(ctx context.Context, subreddit, query string) ([]byte, error) {
	parsedUrl, err := url.Parse(fmt.Sprintf("%s/r/%s/search", rc.apiURL, url.PathEscape(subreddit)))
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}
	queryParams := parsedUrl.Query()
	queryParams.Add("q", query)
	queryParams.Add("restrict_sr", "1")
	queryParams.Add("sort", "top")
	queryParams.Add("limit", fmt.Sprintf("%d", REDDIT_LIMIT))
	parsedUrl.RawQuery = queryParams.Encode()

	refreshed := false
	backoff := rc.backoff
	for i := 0; i < MAX_RETRIES; i++ {
		if err := rc.wait(ctx, rc.pause); err != nil {
			return nil, err
		}

		status, body, err := rc.get(ctx, parsedUrl.String())
		if err != nil {
			return nil, err
		}

		switch status {
		case http.StatusOK:
			return body, nil
		case http.StatusUnauthorized:
			if refreshed {
				return nil, fmt.Errorf("[RedditClient] Unauthorized after token refresh")
			}
			slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
			rc.RefreshClient()
			refreshed = true
		case http.StatusTooManyRequests:
			slog.Warn("[RedditClient] 429 Too Many Requests - Retrying with backoff",
				slog.Int("attempt", i+1), slog.Duration("backoff", backoff))
			if err := rc.wait(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
			if backoff > MAX_BACKOFF {
				backoff = MAX_BACKOFF
			}
		default:
			return nil, fmt.Errorf("[RedditClient] Unexpected status %d for r/%s", status, subreddit)
		}
	}
	return nil, fmt.Errorf("[RedditClient] Max retries reached request failed: %w", ErrRedditRateLimited)
}

func (rc *RedditClient) get(ctx context.Context, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := rc.httpClient().Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return 0, nil, fmt.Errorf("[RedditClient] Failed to obtain token: %w", err)
		}
		return 0, nil, fmt.Errorf("[RedditClient] Request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("[RedditClient] Failed to read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (rc *RedditClient) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	redditRateLimitMutex.Lock()
	defer redditRateLimitMutex.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
