package dataflows

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RedditClient collects ticker mentions from Reddit's public search API.
type RedditClient struct {
	client *resty.Client
	cache  *CacheManager
}

// NewRedditClient creates a new Reddit client
func NewRedditClient(config *Config) *RedditClient {
	cacheDir := filepath.Join(config.DataCacheDir, "reddit")
	cache := NewCacheManager(cacheDir, 1*time.Hour, config.CacheEnabled) // 1 hour cache for Reddit

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", config.RedditUserAgent)

	return &RedditClient{
		client: client,
		cache:  cache,
	}
}

// RedditSearchParams represents parameters for Reddit search
type RedditSearchParams struct {
	Query      string `json:"query"`
	Subreddit  string `json:"subreddit"`
	Sort       string `json:"sort"` // relevance, hot, top, new, comments
	Time       string `json:"time"` // hour, day, week, month, year, all
	Limit      int    `json:"limit"`
	After      string `json:"after"`
	MaxResults int    `json:"max_results"`
}

type redditResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string        `json:"after"`
		Children []redditChild `json:"children"`
	} `json:"data"`
}

type redditChild struct {
	Kind string         `json:"kind"`
	Data redditPostData `json:"data"`
}

type redditPostData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

// GetStockMentions searches finance subreddits for mentions of a symbol.
// Zero results is not an error; callers degrade gracefully.
func (rc *RedditClient) GetStockMentions(symbol string) ([]*RedditPost, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	queries := []string{
		fmt.Sprintf("$%s", symbol),
		fmt.Sprintf("%s stock", symbol),
		symbol,
	}

	var allResults []*RedditPost
	seen := make(map[string]bool)

	for _, query := range queries {
		params := RedditSearchParams{
			Query:      query,
			Subreddit:  "wallstreetbets+stocks+investing+StockMarket",
			Sort:       "relevance",
			Time:       "week",
			Limit:      25,
			MaxResults: 25,
		}

		posts, err := rc.Search(params)
		if err != nil {
			continue // Skip this query if it fails
		}

		for _, post := range posts {
			if !seen[post.ID] && rc.mentionsSymbol(post, symbol) {
				seen[post.ID] = true
				allResults = append(allResults, post)
			}
		}
	}

	return allResults, nil
}

// Search queries Reddit's public search endpoint with pagination.
func (rc *RedditClient) Search(params RedditSearchParams) ([]*RedditPost, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	if params.Sort == "" {
		params.Sort = "relevance"
	}
	if params.Time == "" {
		params.Time = "week"
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 25
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 50
	}

	var cached []*RedditPost
	if rc.cache.Get("search", "query", params, &cached) {
		return cached, nil
	}

	var allResults []*RedditPost
	after := params.After

	for len(allResults) < params.MaxResults {
		searchURL := rc.buildSearchURL(params, after)

		var redditResp redditResponse
		err := WithRetry(DefaultRetryConfig(), func() error {
			resp, err := rc.client.R().Get(searchURL)
			if err != nil {
				return fmt.Errorf("failed to search Reddit: %w", err)
			}
			if resp.StatusCode() != 200 {
				return fmt.Errorf("HTTP error %d when searching Reddit", resp.StatusCode())
			}
			if err := json.Unmarshal(resp.Body(), &redditResp); err != nil {
				return fmt.Errorf("failed to parse Reddit JSON: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		posts := rc.convertPosts(redditResp.Data.Children)
		allResults = append(allResults, posts...)

		if redditResp.Data.After == "" || len(posts) == 0 {
			break
		}
		after = redditResp.Data.After

		if len(allResults) >= params.MaxResults {
			allResults = allResults[:params.MaxResults]
			break
		}
	}

	rc.cache.Set("search", "query", params, allResults)

	return allResults, nil
}

func (rc *RedditClient) buildSearchURL(params RedditSearchParams, after string) string {
	values := url.Values{}
	values.Set("q", params.Query)
	values.Set("sort", params.Sort)
	values.Set("t", params.Time)
	values.Set("limit", fmt.Sprintf("%d", params.Limit))
	values.Set("type", "link")
	if after != "" {
		values.Set("after", after)
	}

	if params.Subreddit != "" {
		return fmt.Sprintf("https://www.reddit.com/r/%s/search.json?restrict_sr=1&%s",
			params.Subreddit, values.Encode())
	}
	return "https://www.reddit.com/search.json?" + values.Encode()
}

func (rc *RedditClient) convertPosts(children []redditChild) []*RedditPost {
	posts := make([]*RedditPost, 0, len(children))
	for _, child := range children {
		data := child.Data
		if data.Stickied {
			continue
		}
		posts = append(posts, &RedditPost{
			ID:        data.ID,
			Title:     data.Title,
			Content:   data.Selftext,
			URL:       "https://www.reddit.com" + data.Permalink,
			Subreddit: data.Subreddit,
			Author:    data.Author,
			Upvotes:   data.Score,
			Comments:  data.NumComments,
			CreatedAt: time.Unix(int64(data.CreatedUTC), 0).UTC(),
		})
	}
	return posts
}

func (rc *RedditClient) mentionsSymbol(post *RedditPost, symbol string) bool {
	text := strings.ToUpper(post.Title + " " + post.Content)
	return strings.Contains(text, symbol)
}
