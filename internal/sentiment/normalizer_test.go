package sentiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/sentigo/models"
	"github.com/avolkov/sentigo/pkg/dataflows"
)

func TestNormalizeRedditPost(t *testing.T) {
	n := NewNormalizer()
	post := &dataflows.RedditPost{
		Title:     "AAPL to the moon",
		Content:   "earnings look strong",
		Subreddit: "stocks",
		Author:    "trader42",
		Upvotes:   150,
		CreatedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
	}

	m := n.NormalizeRedditPost(post, 0.7)
	require.NotNil(t, m)
	assert.Equal(t, models.SourceReddit, m.Source)
	assert.Equal(t, "AAPL to the moon earnings look strong", m.Text)
	assert.InDelta(t, 0.7, m.Score, 1e-9)
	assert.Equal(t, "stocks", m.Metadata["subreddit"])
	assert.Zero(t, n.Rejected())
}

func TestNormalizeRejectsUnusableRecords(t *testing.T) {
	n := NewNormalizer()

	assert.Nil(t, n.NormalizeRedditPost(nil, 0))
	assert.Nil(t, n.NormalizeRedditPost(&dataflows.RedditPost{Title: " ", CreatedAt: time.Now()}, 0.5))
	assert.Nil(t, n.NormalizeRedditPost(&dataflows.RedditPost{Title: "text, no timestamp"}, 0.5))
	assert.Nil(t, n.NormalizeTweet(&dataflows.Tweet{Text: "", CreatedAt: time.Now()}, 0.5))
	assert.Nil(t, n.NormalizeNewsArticle(&dataflows.NewsArticle{Title: "headline"}, 0.5))

	assert.Equal(t, 5, n.Rejected())
}

func TestNormalizeClampsOutOfRangeScores(t *testing.T) {
	n := NewNormalizer()
	tweet := &dataflows.Tweet{Text: "bullish", CreatedAt: time.Now(), Likes: 10}

	m := n.NormalizeTweet(tweet, 3.5)
	require.NotNil(t, m)
	assert.Equal(t, 1.0, m.Score)

	m = n.NormalizeTweet(tweet, -2.0)
	require.NotNil(t, m)
	assert.Equal(t, -1.0, m.Score)
}

func TestWeightsAreMonotoneAndNonNegative(t *testing.T) {
	assert.GreaterOrEqual(t, redditWeight(0), 0.0)
	assert.GreaterOrEqual(t, redditWeight(-5), 0.0) // negative engagement is treated as zero
	assert.Greater(t, redditWeight(100), redditWeight(10))
	assert.Greater(t, redditWeight(10), redditWeight(0))

	assert.Greater(t, twitterWeight(50, 10), twitterWeight(50, 0))
	assert.Greater(t, twitterWeight(50, 0), twitterWeight(5, 0))
	assert.GreaterOrEqual(t, twitterWeight(0, 0), 0.0)

	// Retweets carry more weight than likes.
	assert.Greater(t, twitterWeight(0, 10), twitterWeight(10, 0))

	now := time.Now()
	assert.Greater(t, newsWeight(now.Add(-time.Hour), now), newsWeight(now.Add(-30*24*time.Hour), now))
	assert.GreaterOrEqual(t, newsWeight(time.Time{}, now), 0.0)
}

func TestNormalizeNewsArticle(t *testing.T) {
	n := NewNormalizer()
	article := &dataflows.NewsArticle{
		Title:       "Apple beats estimates",
		Content:     "Quarterly revenue above consensus.",
		Source:      "reuters.com",
		URL:         "https://example.com/apple",
		PublishedAt: time.Now().Add(-2 * time.Hour),
	}

	m := n.NormalizeNewsArticle(article, -0.2)
	require.NotNil(t, m)
	assert.Equal(t, models.SourceNews, m.Source)
	assert.Equal(t, "Apple beats estimates", m.Metadata["headline"])
	assert.InDelta(t, -0.2, m.Score, 1e-9)
	assert.InDelta(t, 1.0, m.Weight, 1e-9)
}
