package dataflows

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	PubDate     string        `xml:"pubDate"`
	Source      rssItemSource `xml:"source"`
}

type rssItemSource struct {
	URL  string `xml:"url,attr"`
	Text string `xml:",chardata"`
}

// NewsClient collects headlines from the Google News RSS feed.
type NewsClient struct {
	client *resty.Client
	cache  *CacheManager
}

// NewNewsClient creates a new Google News client
func NewNewsClient(config *Config) *NewsClient {
	cacheDir := filepath.Join(config.DataCacheDir, "google_news")
	cache := NewCacheManager(cacheDir, 30*time.Minute, config.CacheEnabled) // 30 minute cache for news

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	return &NewsClient{
		client: client,
		cache:  cache,
	}
}

// GetStockNews fetches recent news articles mentioning a symbol.
func (nc *NewsClient) GetStockNews(symbol string, maxResults int) ([]*NewsArticle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	if maxResults <= 0 {
		maxResults = 20
	}

	cacheKey := fmt.Sprintf("%s_%d", symbol, maxResults)
	var cached []*NewsArticle
	if nc.cache.Get("news", "stock", cacheKey, &cached) {
		return cached, nil
	}

	query := fmt.Sprintf("%s stock", symbol)
	feedURL := fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		url.QueryEscape(query))

	var result []*NewsArticle
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := nc.client.R().Get(feedURL)
		if err != nil {
			return fmt.Errorf("failed to fetch Google News RSS: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP error %d when fetching Google News RSS", resp.StatusCode())
		}

		var feed rssFeed
		if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
			return fmt.Errorf("failed to parse RSS XML: %w", err)
		}

		result = nc.convertItems(feed.Channel.Items, maxResults)
		return nil
	})
	if err != nil {
		return nil, err
	}

	nc.cache.Set("news", "stock", cacheKey, result)

	return result, nil
}

func (nc *NewsClient) convertItems(items []rssItem, maxResults int) []*NewsArticle {
	articles := make([]*NewsArticle, 0, len(items))
	seen := make(map[string]bool)

	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true

		publishedAt, err := parsePubDate(item.PubDate)
		if err != nil {
			continue // unusable timestamp, drop the record
		}

		articles = append(articles, &NewsArticle{
			Title:       title,
			Content:     cleanDescription(item.Description),
			URL:         item.Link,
			Source:      item.Source.Text,
			PublishedAt: publishedAt,
		})

		if len(articles) >= maxResults {
			break
		}
	}

	return articles
}

// cleanDescription strips the HTML markup Google News embeds in RSS
// descriptions, leaving plain text.
func cleanDescription(description string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return strings.TrimSpace(description)
	}
	return strings.TrimSpace(doc.Text())
}

func parsePubDate(pubDate string) (time.Time, error) {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 MST",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, pubDate); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized pubDate format %q", pubDate)
}
