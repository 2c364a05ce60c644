package sentiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/sentigo/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mention(src models.Source, ts time.Time, score, weight float64) models.ScoredMention {
	return models.ScoredMention{Source: src, Timestamp: ts, Text: "x", Score: score, Weight: weight}
}

func TestAggregateGroupsByMentionDay(t *testing.T) {
	mentions := []models.ScoredMention{
		mention(models.SourceReddit, time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), 0.8, 2),
		mention(models.SourceTwitter, time.Date(2024, 3, 4, 23, 59, 0, 0, time.UTC), 0.4, 2),
		mention(models.SourceNews, time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC), -0.5, 1),
	}

	series := Aggregate(mentions, day(2024, 3, 1), day(2024, 3, 31))
	require.Len(t, series, 2) // March 5 has no mentions and is omitted, not zero-filled

	assert.Equal(t, day(2024, 3, 4), series[0].Date)
	assert.Equal(t, 2, series[0].MentionCount)
	assert.InDelta(t, 0.6, series[0].AvgSentimentScore, 1e-9)
	assert.InDelta(t, 0.8, series[0].PerSourceScore[models.SourceReddit], 1e-9)
	assert.InDelta(t, 0.4, series[0].PerSourceScore[models.SourceTwitter], 1e-9)

	assert.Equal(t, day(2024, 3, 6), series[1].Date)
	assert.InDelta(t, -0.5, series[1].AvgSentimentScore, 1e-9)
}

func TestAggregateWeightedMean(t *testing.T) {
	mentions := []models.ScoredMention{
		mention(models.SourceReddit, day(2024, 3, 4), 1.0, 3),
		mention(models.SourceReddit, day(2024, 3, 4), -1.0, 1),
	}

	series := Aggregate(mentions, day(2024, 3, 1), day(2024, 3, 31))
	require.Len(t, series, 1)
	assert.InDelta(t, 0.5, series[0].AvgSentimentScore, 1e-9)
}

func TestAggregateZeroWeightFallsBackToUnweightedMean(t *testing.T) {
	// Upstream intent here is unconfirmed; the unweighted-mean fallback is
	// an assumption this test pins down.
	mentions := []models.ScoredMention{
		mention(models.SourceTwitter, day(2024, 3, 4), 0.9, 0),
		mention(models.SourceTwitter, day(2024, 3, 4), 0.1, 0),
	}

	series := Aggregate(mentions, day(2024, 3, 1), day(2024, 3, 31))
	require.Len(t, series, 1)
	assert.InDelta(t, 0.5, series[0].AvgSentimentScore, 1e-9)
}

func TestAggregateScoreStaysBounded(t *testing.T) {
	mentions := []models.ScoredMention{
		mention(models.SourceReddit, day(2024, 3, 4), 1.0, 100),
		mention(models.SourceNews, day(2024, 3, 4), 1.0, 0.001),
		mention(models.SourceTwitter, day(2024, 3, 4), -1.0, 50),
	}

	series := Aggregate(mentions, day(2024, 3, 1), day(2024, 3, 31))
	require.Len(t, series, 1)
	assert.GreaterOrEqual(t, series[0].AvgSentimentScore, -1.0)
	assert.LessOrEqual(t, series[0].AvgSentimentScore, 1.0)
}

func TestAggregateIsIdempotent(t *testing.T) {
	mentions := []models.ScoredMention{
		mention(models.SourceReddit, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), 0.3, 2),
		mention(models.SourceNews, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), -0.2, 1),
		mention(models.SourceTwitter, time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC), 0.7, 4),
	}

	first := Aggregate(mentions, day(2024, 3, 1), day(2024, 3, 31))
	second := Aggregate(mentions, day(2024, 3, 1), day(2024, 3, 31))
	assert.Equal(t, first, second)
}

func TestAggregateExcludesOutOfRangeMentions(t *testing.T) {
	mentions := []models.ScoredMention{
		mention(models.SourceReddit, day(2024, 2, 28), 0.9, 1),
		mention(models.SourceReddit, day(2024, 3, 4), 0.1, 1),
		mention(models.SourceReddit, day(2024, 4, 1), -0.9, 1),
	}

	series := Aggregate(mentions, day(2024, 3, 1), day(2024, 3, 31))
	require.Len(t, series, 1)
	assert.Equal(t, day(2024, 3, 4), series[0].Date)
}

func TestAggregateIncludesWholeFinalDay(t *testing.T) {
	mentions := []models.ScoredMention{
		mention(models.SourceReddit, time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC), 0.6, 1),
		mention(models.SourceReddit, time.Date(2024, 3, 6, 1, 0, 0, 0, time.UTC), -0.9, 1),
	}

	series := Aggregate(mentions, day(2024, 3, 1), day(2024, 3, 5))
	require.Len(t, series, 1)
	assert.Equal(t, day(2024, 3, 5), series[0].Date)
	assert.InDelta(t, 0.6, series[0].AvgSentimentScore, 1e-9)
}

func TestAggregateEmptyInput(t *testing.T) {
	series := Aggregate(nil, day(2024, 3, 1), day(2024, 3, 31))
	assert.Empty(t, series)
}

func TestMostRecentOnOrBefore(t *testing.T) {
	series := []models.DailySentiment{
		{Date: day(2024, 3, 4), AvgSentimentScore: 0.1},
		{Date: day(2024, 3, 6), AvgSentimentScore: 0.5},
	}

	got := MostRecentOnOrBefore(series, day(2024, 3, 5))
	require.NotNil(t, got)
	assert.Equal(t, day(2024, 3, 4), got.Date)

	got = MostRecentOnOrBefore(series, day(2024, 3, 7))
	require.NotNil(t, got)
	assert.Equal(t, day(2024, 3, 6), got.Date)

	assert.Nil(t, MostRecentOnOrBefore(series, day(2024, 3, 3)))
	assert.Nil(t, Latest(nil))
}
