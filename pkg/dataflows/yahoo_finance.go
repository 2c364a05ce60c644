package dataflows

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/avolkov/sentigo/models"
)

// YahooFinanceClient fetches daily price bars from Yahoo Finance.
type YahooFinanceClient struct {
	cache *CacheManager
}

// NewYahooFinanceClient creates a new Yahoo Finance client
func NewYahooFinanceClient(config *Config) *YahooFinanceClient {
	cacheDir := filepath.Join(config.DataCacheDir, "yahoo_finance")
	cache := NewCacheManager(cacheDir, 24*time.Hour, config.CacheEnabled) // 24 hour cache

	return &YahooFinanceClient{
		cache: cache,
	}
}

// GetQuote gets the current quote for a symbol as a single bar.
func (yf *YahooFinanceClient) GetQuote(symbol string) (*models.PriceBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.PriceBar
	if yf.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	var result *models.PriceBar
	err := WithRetry(DefaultRetryConfig(), func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to get quote for %s: %w", symbol, err)
		}

		result = &models.PriceBar{
			Date:   time.Now().UTC(),
			Open:   q.RegularMarketOpen,
			High:   q.RegularMarketDayHigh,
			Low:    q.RegularMarketDayLow,
			Close:  q.RegularMarketPrice,
			Volume: int64(q.RegularMarketVolume),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yf.cache.Set("yahoo", "quote", symbol, result)

	return result, nil
}

// GetHistoricalData gets daily price bars for a symbol, ascending by date.
func (yf *YahooFinanceClient) GetHistoricalData(symbol string, start, end time.Time) ([]models.PriceBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	return yf.fetchBars(NormalizeSymbol(symbol), "historical", start, end)
}

// GetBenchmarkData gets the benchmark index series for the same window.
// Index symbols (e.g. ^GSPC) skip plain-ticker validation because they
// carry characters plain tickers do not.
func (yf *YahooFinanceClient) GetBenchmarkData(benchmark string, start, end time.Time) ([]models.PriceBar, error) {
	if benchmark == "" {
		return nil, fmt.Errorf("benchmark symbol cannot be empty")
	}
	return yf.fetchBars(benchmark, "benchmark", start, end)
}

// GetHistoricalDataWindow gets bars for a rolling window of days.
func (yf *YahooFinanceClient) GetHistoricalDataWindow(symbol string, days int) ([]models.PriceBar, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	return yf.GetHistoricalData(symbol, start, end)
}

func (yf *YahooFinanceClient) fetchBars(symbol, method string, start, end time.Time) ([]models.PriceBar, error) {
	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}

	var cached []models.PriceBar
	if yf.cache.Get("yahoo", method, cacheKey, &cached) {
		return cached, nil
	}

	var result []models.PriceBar
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)

		result = result[:0]
		for iter.Next() {
			bar := iter.Bar()

			open, _ := bar.Open.Float64()
			high, _ := bar.High.Float64()
			low, _ := bar.Low.Float64()
			closePrice, _ := bar.Close.Float64()

			result = append(result, models.PriceBar{
				Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closePrice,
				Volume: int64(bar.Volume),
			})
		}

		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get chart data for %s: %w", symbol, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err = ensureBars(result, symbol, start, end)
	if err != nil {
		return nil, err
	}

	yf.cache.Set("yahoo", method, cacheKey, result)

	return result, nil
}

// ensureBars sorts fetched bars ascending and reports an empty fetch as a
// data gap, so callers can tell "no data for this window" apart from a
// transport failure.
func ensureBars(bars []models.PriceBar, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no price bars for %s (%s)",
			models.ErrDataGap, symbol, FormatDateRange(start, end))
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
