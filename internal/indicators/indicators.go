// Package indicators computes technical indicators over a daily price
// series. Every indicator is strictly backward-looking: the value at row i
// uses bars up to and including i, and stays nil until a full lookback
// window of prior bars exists.
package indicators

import (
	"math"
	"sort"

	"github.com/avolkov/sentigo/config"
	"github.com/avolkov/sentigo/models"
)

// Compute returns one IndicatorRow per input bar, in ascending date order.
// Rows whose position predates an indicator's window carry nil for that
// indicator; a partial-window value is never emitted.
func Compute(bars []models.PriceBar, cfg config.IndicatorConfig) ([]models.IndicatorRow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, nil
	}

	sorted := make([]models.PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	closes := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close
	}

	rows := make([]models.IndicatorRow, len(sorted))
	for i, b := range sorted {
		rows[i] = models.IndicatorRow{
			Date:       b.Date,
			Close:      b.Close,
			SMAFast:    smaAt(closes, i, cfg.SMAFastWindow),
			SMASlow:    smaAt(closes, i, cfg.SMASlowWindow),
			Momentum:   momentumAt(closes, i, cfg.MomentumWindow),
			Volatility: stddevAt(closes, i, cfg.VolatilityWindow),
			RSI:        rsiAt(closes, i, cfg.RSIWindow),
		}
		if mid := smaAt(closes, i, cfg.BollingerWindow); mid != nil {
			sd := stddevAt(closes, i, cfg.BollingerWindow)
			upper := *mid + 2**sd
			lower := *mid - 2**sd
			rows[i].BollUpper = &upper
			rows[i].BollLower = &lower
		}
	}

	return rows, nil
}

// ForDate returns the row matching the given calendar day, or nil.
func ForDate(rows []models.IndicatorRow, date models.PriceBar) *models.IndicatorRow {
	for i := range rows {
		if rows[i].Date.Equal(date.Date) {
			return &rows[i]
		}
	}
	return nil
}

// smaAt is the simple moving average of the window ending at index i.
func smaAt(closes []float64, i, window int) *float64 {
	if i+1 < window {
		return nil
	}
	sum := 0.0
	for j := i - window + 1; j <= i; j++ {
		sum += closes[j]
	}
	v := sum / float64(window)
	return &v
}

// momentumAt is the rate of change versus the close `window` bars back,
// in percent.
func momentumAt(closes []float64, i, window int) *float64 {
	if i < window {
		return nil
	}
	prev := closes[i-window]
	if prev == 0 {
		return nil
	}
	v := (closes[i] - prev) / prev * 100
	return &v
}

// stddevAt is the population standard deviation of the window ending at i.
func stddevAt(closes []float64, i, window int) *float64 {
	mean := smaAt(closes, i, window)
	if mean == nil {
		return nil
	}
	variance := 0.0
	for j := i - window + 1; j <= i; j++ {
		diff := closes[j] - *mean
		variance += diff * diff
	}
	variance /= float64(window)
	v := math.Sqrt(variance)
	return &v
}

// rsiAt is Wilder's RSI over the window ending at i. Needs window+1 bars
// because it works on close-to-close changes.
func rsiAt(closes []float64, i, window int) *float64 {
	if i < window {
		return nil
	}

	var gains, losses []float64
	for j := i - window + 1; j <= i; j++ {
		change := closes[j] - closes[j-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := sum(gains) / float64(window)
	avgLoss := sum(losses) / float64(window)

	var rsi float64
	if avgLoss == 0 {
		rsi = 100
	} else {
		rs := avgGain / avgLoss
		rsi = 100 - (100 / (1 + rs))
	}
	return &rsi
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
