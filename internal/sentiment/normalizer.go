// Package sentiment turns raw, per-source mention records into the daily
// sentiment series the strategy consumes.
package sentiment

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/sentigo/models"
	"github.com/avolkov/sentigo/pkg/dataflows"
)

// Normalizer packages scorer output and raw records into ScoredMentions.
// Records without a usable timestamp or text body are dropped silently;
// Rejected() reports how many.
type Normalizer struct {
	rejected int
}

// NewNormalizer creates a normalizer with a zero rejection count.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Rejected returns the number of records dropped so far.
func (n *Normalizer) Rejected() int {
	return n.rejected
}

// CountRejected records a drop decided by the caller, e.g. a nil record
// skipped before scoring.
func (n *Normalizer) CountRejected() {
	n.rejected++
}

// NormalizeRedditPost converts one reddit post plus its polarity score.
// Returns nil when the record is unusable.
func (n *Normalizer) NormalizeRedditPost(post *dataflows.RedditPost, score float64) *models.ScoredMention {
	if post == nil {
		n.rejected++
		return nil
	}
	text := strings.TrimSpace(post.Title)
	if body := strings.TrimSpace(post.Content); body != "" {
		text = strings.TrimSpace(text + " " + body)
	}
	if text == "" || post.CreatedAt.IsZero() {
		n.rejected++
		return nil
	}

	return &models.ScoredMention{
		Source:    models.SourceReddit,
		Timestamp: post.CreatedAt,
		Text:      text,
		Score:     clampScore(score),
		Weight:    redditWeight(post.Upvotes),
		Metadata: map[string]string{
			"subreddit": post.Subreddit,
			"author":    post.Author,
			"url":       post.URL,
		},
	}
}

// NormalizeTweet converts one tweet plus its polarity score.
func (n *Normalizer) NormalizeTweet(tweet *dataflows.Tweet, score float64) *models.ScoredMention {
	if tweet == nil || strings.TrimSpace(tweet.Text) == "" || tweet.CreatedAt.IsZero() {
		n.rejected++
		return nil
	}

	return &models.ScoredMention{
		Source:    models.SourceTwitter,
		Timestamp: tweet.CreatedAt,
		Text:      strings.TrimSpace(tweet.Text),
		Score:     clampScore(score),
		Weight:    twitterWeight(tweet.Likes, tweet.Retweets),
		Metadata: map[string]string{
			"author":   tweet.Author,
			"likes":    strconv.Itoa(tweet.Likes),
			"retweets": strconv.Itoa(tweet.Retweets),
		},
	}
}

// NormalizeNewsArticle converts one news article plus its polarity score.
func (n *Normalizer) NormalizeNewsArticle(article *dataflows.NewsArticle, score float64) *models.ScoredMention {
	if article == nil {
		n.rejected++
		return nil
	}
	text := strings.TrimSpace(article.Title)
	if content := strings.TrimSpace(article.Content); content != "" {
		text = strings.TrimSpace(text + " " + content)
	}
	if text == "" || article.PublishedAt.IsZero() {
		n.rejected++
		return nil
	}

	return &models.ScoredMention{
		Source:    models.SourceNews,
		Timestamp: article.PublishedAt,
		Text:      text,
		Score:     clampScore(score),
		Weight:    newsWeight(article.PublishedAt, time.Now()),
		Metadata: map[string]string{
			"headline": article.Title,
			"source":   article.Source,
			"url":      article.URL,
		},
	}
}

// redditWeight grows with upvotes, never below 1 and never negative.
func redditWeight(upvotes int) float64 {
	if upvotes < 0 {
		upvotes = 0
	}
	return 1 + math.Log1p(float64(upvotes))
}

// twitterWeight grows with engagement; retweets count double.
func twitterWeight(likes, retweets int) float64 {
	if likes < 0 {
		likes = 0
	}
	if retweets < 0 {
		retweets = 0
	}
	return 1 + math.Log1p(float64(likes)+2*float64(retweets))
}

// newsWeight is a flat weight with a mild recency decay: articles older
// than a week contribute half as much.
func newsWeight(published, now time.Time) float64 {
	if published.IsZero() || published.After(now) {
		return 1
	}
	age := now.Sub(published)
	if age > 7*24*time.Hour {
		return 0.5
	}
	return 1
}

// clampScore pins an out-of-range polarity back into [-1, 1]; scorer
// output is clamped, not rejected.
func clampScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}
