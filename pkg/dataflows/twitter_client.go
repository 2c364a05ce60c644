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

// TwitterClient collects ticker mentions through the API v2 recent search
// endpoint. It needs a bearer token; without one every call returns an
// empty result instead of failing, since mention feeds are best-effort.
type TwitterClient struct {
	client      *resty.Client
	cache       *CacheManager
	bearerToken string
}

// NewTwitterClient creates a new Twitter client
func NewTwitterClient(config *Config) *TwitterClient {
	cacheDir := filepath.Join(config.DataCacheDir, "twitter")
	cache := NewCacheManager(cacheDir, 30*time.Minute, config.CacheEnabled)

	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &TwitterClient{
		client:      client,
		cache:       cache,
		bearerToken: config.TwitterBearerToken,
	}
}

type twitterSearchResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			LikeCount    int `json:"like_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

// GetStockMentions searches recent tweets mentioning a symbol's cashtag.
func (tc *TwitterClient) GetStockMentions(symbol string, maxResults int) ([]*Tweet, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	if strings.TrimSpace(tc.bearerToken) == "" {
		return nil, nil // no credentials, no mentions
	}

	if maxResults <= 0 || maxResults > 100 {
		maxResults = 50
	}

	cacheKey := fmt.Sprintf("%s_%d", symbol, maxResults)
	var cached []*Tweet
	if tc.cache.Get("twitter", "mentions", cacheKey, &cached) {
		return cached, nil
	}

	query := fmt.Sprintf("$%s -is:retweet lang:en", symbol)
	values := url.Values{}
	values.Set("query", query)
	values.Set("max_results", fmt.Sprintf("%d", maxResults))
	values.Set("tweet.fields", "created_at,public_metrics,author_id")

	searchURL := "https://api.twitter.com/2/tweets/search/recent?" + values.Encode()

	var result []*Tweet
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := tc.client.R().
			SetHeader("Authorization", "Bearer "+tc.bearerToken).
			Get(searchURL)
		if err != nil {
			return fmt.Errorf("failed to search Twitter: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP error %d when searching Twitter", resp.StatusCode())
		}

		var searchResp twitterSearchResponse
		if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
			return fmt.Errorf("failed to parse Twitter JSON: %w", err)
		}

		result = make([]*Tweet, 0, len(searchResp.Data))
		for _, raw := range searchResp.Data {
			createdAt, err := time.Parse(time.RFC3339, raw.CreatedAt)
			if err != nil {
				continue // unusable timestamp, drop the record
			}
			result = append(result, &Tweet{
				ID:        raw.ID,
				Text:      raw.Text,
				Author:    raw.AuthorID,
				Likes:     raw.PublicMetrics.LikeCount,
				Retweets:  raw.PublicMetrics.RetweetCount,
				CreatedAt: createdAt.UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tc.cache.Set("twitter", "mentions", cacheKey, result)

	return result, nil
}
