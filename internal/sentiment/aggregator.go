package sentiment

import (
	"sort"
	"time"

	"github.com/avolkov/sentigo/models"
)

// Aggregate buckets mentions by the UTC calendar day of their own
// timestamp and produces one DailySentiment per day that has at least one
// in-range mention, ascending by date. Days without mentions are omitted,
// never zero-filled. Bucketing by the mention's own timestamp (not
// ingestion time) keeps the series usable inside a backtest without
// look-ahead.
func Aggregate(mentions []models.ScoredMention, from, to time.Time) []models.DailySentiment {
	from = dayStart(from)
	to = dayStart(to)

	buckets := make(map[time.Time][]models.ScoredMention)
	for _, m := range mentions {
		if m.Timestamp.IsZero() {
			continue
		}
		day := dayStart(m.Timestamp)
		if day.Before(from) || day.After(to) {
			continue
		}
		buckets[day] = append(buckets[day], m)
	}

	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := make([]models.DailySentiment, 0, len(days))
	for _, day := range days {
		group := buckets[day]

		perSource := make(map[models.Source][]models.ScoredMention)
		for _, m := range group {
			perSource[m.Source] = append(perSource[m.Source], m)
		}
		perSourceScore := make(map[models.Source]float64, len(perSource))
		for src, ms := range perSource {
			perSourceScore[src] = weightedMean(ms)
		}

		series = append(series, models.DailySentiment{
			Date:              day,
			AvgSentimentScore: weightedMean(group),
			MentionCount:      len(group),
			PerSourceScore:    perSourceScore,
		})
	}

	return series
}

// weightedMean averages scores by weight. When the group's total weight is
// exactly zero it falls back to the unweighted arithmetic mean rather than
// dividing by zero.
func weightedMean(mentions []models.ScoredMention) float64 {
	var weightedSum, totalWeight float64
	for _, m := range mentions {
		w := m.Weight
		if w < 0 {
			w = 0
		}
		weightedSum += m.Score * w
		totalWeight += w
	}
	if totalWeight > 0 {
		return weightedSum / totalWeight
	}

	var sum float64
	for _, m := range mentions {
		sum += m.Score
	}
	return sum / float64(len(mentions))
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Latest returns the most recent entry of an ascending series, or nil for
// an empty series.
func Latest(series []models.DailySentiment) *models.DailySentiment {
	if len(series) == 0 {
		return nil
	}
	return &series[len(series)-1]
}

// MostRecentOnOrBefore returns the latest entry whose date does not exceed
// day, mirroring how the backtest looks sentiment up for a trading day.
func MostRecentOnOrBefore(series []models.DailySentiment, day time.Time) *models.DailySentiment {
	day = dayStart(day)
	for i := len(series) - 1; i >= 0; i-- {
		if !series[i].Date.After(day) {
			return &series[i]
		}
	}
	return nil
}
