package backtest

import (
	"math"

	"github.com/avolkov/sentigo/models"
)

type summaryMetrics struct {
	totalReturn float64
	sharpe      *float64 // nil when undefined
	maxDrawdown float64
	winRate     float64
}

// computeMetrics derives the summary metrics from the daily value series.
// Sharpe is annualized with sqrt(252) and left nil when fewer than two
// return observations exist or their variance is zero.
func computeMetrics(dailyValues []models.DailyValue, initialCapital float64) summaryMetrics {
	var m summaryMetrics
	if len(dailyValues) == 0 || initialCapital == 0 {
		return m
	}

	final := dailyValues[len(dailyValues)-1].Value
	m.totalReturn = (final - initialCapital) / initialCapital * 100

	returns := dailyReturns(dailyValues)
	m.sharpe = sharpeRatio(returns)
	m.maxDrawdown = maxDrawdown(dailyValues)
	m.winRate = winRate(returns, len(dailyValues))
	return m
}

func dailyReturns(dailyValues []models.DailyValue) []float64 {
	if len(dailyValues) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(dailyValues)-1)
	for i := 1; i < len(dailyValues); i++ {
		prev := dailyValues[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (dailyValues[i].Value-prev)/prev)
	}
	return returns
}

func sharpeRatio(returns []float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))
	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return nil
	}

	sharpe := mean / stdev * math.Sqrt(252)
	return &sharpe
}

// maxDrawdown is the largest peak-to-trough percentage decline of the
// value series, reported as a non-positive percent.
func maxDrawdown(dailyValues []models.DailyValue) float64 {
	peak := dailyValues[0].Value
	worst := 0.0
	for _, dv := range dailyValues {
		if dv.Value > peak {
			peak = dv.Value
		}
		if peak > 0 {
			dd := (dv.Value - peak) / peak * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// winRate is the fraction of days with a non-negative day-over-day return,
// in percent. A single-day series counts as fully non-negative.
func winRate(returns []float64, days int) float64 {
	if len(returns) == 0 {
		if days > 0 {
			return 100
		}
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r >= 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns)) * 100
}
