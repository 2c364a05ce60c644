// Package backtest replays the fusion strategy day by day over historical
// data and scores it against a buy-and-hold benchmark.
package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkov/sentigo/config"
	"github.com/avolkov/sentigo/internal/indicators"
	"github.com/avolkov/sentigo/internal/sentiment"
	"github.com/avolkov/sentigo/internal/strategy"
	"github.com/avolkov/sentigo/models"
)

// Engine simulates a long-only single-asset portfolio. The cash ledger is
// kept in decimal so repeated partial fills do not accumulate float drift;
// metrics are computed on the float value series.
type Engine struct {
	cfg    config.BacktestConfig
	indCfg config.IndicatorConfig
	fusion *strategy.Engine
}

// NewEngine validates the configuration and builds a simulator.
func NewEngine(cfg config.BacktestConfig, indCfg config.IndicatorConfig, strategyCfg config.StrategyConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := indCfg.Validate(); err != nil {
		return nil, err
	}
	fusion, err := strategy.NewEngine(strategyCfg)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, indCfg: indCfg, fusion: fusion}, nil
}

// Run replays the strategy over bars within [start, end]. benchBars is the
// benchmark index series for the same window; sentimentSeries may be empty
// (the fusion engine degrades to neutral). The position is never
// force-liquidated at the end: the final value is mark-to-market.
func (e *Engine) Run(ticker string, bars, benchBars []models.PriceBar, sentimentSeries []models.DailySentiment, start, end time.Time) (*models.BacktestResult, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s is not before end %s",
			models.ErrInvalidRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	window := filterWindow(bars, start, end)
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: no price bars for %s between %s and %s",
			models.ErrInsufficientData, ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	// Indicators are computed over the full history so early window days
	// still have their lookback; each day only ever sees rows at or
	// before itself.
	rows, err := indicators.Compute(bars, e.indCfg)
	if err != nil {
		return nil, err
	}
	rowByDate := make(map[time.Time]models.IndicatorRow, len(rows))
	for _, r := range rows {
		rowByDate[dayStart(r.Date)] = r
	}

	cash := decimal.NewFromFloat(e.cfg.InitialCapital)
	var shares int64
	costRate := decimal.NewFromFloat(1 + e.cfg.TransactionCostPct)
	proceedsRate := decimal.NewFromFloat(1 - e.cfg.TransactionCostPct)

	dailyValues := make([]models.DailyValue, 0, len(window))
	var trades []models.Trade

	for _, bar := range window {
		day := dayStart(bar.Date)
		price := decimal.NewFromFloat(bar.Close)

		row, ok := rowByDate[day]
		if !ok {
			row = models.IndicatorRow{Date: day, Close: bar.Close}
		}
		sent := sentiment.MostRecentOnOrBefore(sentimentSeries, day)

		sig := e.fusion.GenerateSignal(ticker, sent, row)

		switch sig.Type {
		case models.SignalBuy:
			if cash.IsPositive() && price.IsPositive() {
				budget := cash.Mul(decimal.NewFromFloat(e.cfg.BuyFraction))
				buyShares := budget.Div(price.Mul(costRate)).IntPart()
				if buyShares > 0 {
					cost := price.Mul(decimal.NewFromInt(buyShares)).Mul(costRate)
					if cost.LessThanOrEqual(cash) {
						cash = cash.Sub(cost)
						shares += buyShares
						trades = append(trades, models.Trade{
							Date: day, Type: models.SignalBuy, Shares: buyShares, Price: bar.Close,
						})
					}
				}
			}
		case models.SignalSell:
			if shares > 0 {
				sellShares := int64(float64(shares) * e.cfg.SellFraction)
				if e.cfg.SellFraction >= 1 {
					sellShares = shares
				}
				if sellShares > 0 {
					proceeds := price.Mul(decimal.NewFromInt(sellShares)).Mul(proceedsRate)
					cash = cash.Add(proceeds)
					shares -= sellShares
					trades = append(trades, models.Trade{
						Date: day, Type: models.SignalSell, Shares: sellShares, Price: bar.Close,
					})
				}
			}
		}

		value := cash.Add(price.Mul(decimal.NewFromInt(shares)))
		v, _ := value.Float64()
		dailyValues = append(dailyValues, models.DailyValue{Date: day, Value: v})
	}

	metrics := computeMetrics(dailyValues, e.cfg.InitialCapital)
	benchReturn := benchmarkReturn(benchBars, start, end)

	return &models.BacktestResult{
		Ticker:             ticker,
		StartDate:          start,
		EndDate:            end,
		InitialCapital:     e.cfg.InitialCapital,
		FinalValue:         dailyValues[len(dailyValues)-1].Value,
		TotalReturn:        metrics.totalReturn,
		SharpeRatio:        metrics.sharpe,
		MaxDrawdown:        metrics.maxDrawdown,
		WinRate:            metrics.winRate,
		SP500Return:        benchReturn,
		VsSP500Performance: metrics.totalReturn - benchReturn,
		TotalTrades:        len(trades),
		Trades:             trades,
		DailyValues:        dailyValues,
	}, nil
}

// benchmarkReturn is the buy-and-hold percentage return of the benchmark
// over the window. Zero when the window has fewer than two bars.
func benchmarkReturn(bars []models.PriceBar, start, end time.Time) float64 {
	window := filterWindow(bars, start, end)
	if len(window) < 2 {
		return 0
	}
	first := window[0].Close
	last := window[len(window)-1].Close
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

func filterWindow(bars []models.PriceBar, start, end time.Time) []models.PriceBar {
	start = dayStart(start)
	end = dayStart(end)

	out := make([]models.PriceBar, 0, len(bars))
	for _, b := range bars {
		day := dayStart(b.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
