package dataflows

import (
	"time"

	"github.com/avolkov/sentigo/config"
)

// Config is an alias for the main application config
type Config = config.Config

// RedditPost is one raw reddit record as collected, before normalization.
type RedditPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	Subreddit string    `json:"subreddit"`
	Author    string    `json:"author"`
	Upvotes   int       `json:"upvotes"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// Tweet is one raw twitter record as collected.
type Tweet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Likes     int       `json:"likes"`
	Retweets  int       `json:"retweets"`
	CreatedAt time.Time `json:"created_at"`
}

// NewsArticle is one raw news record as collected.
type NewsArticle struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}
