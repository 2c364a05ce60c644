package models

import (
	"time"
)

// Source identifies where a mention was collected from.
type Source string

const (
	SourceReddit  Source = "reddit"
	SourceTwitter Source = "twitter"
	SourceNews    Source = "news"
)

// AllSources lists every supported mention source.
var AllSources = []Source{SourceReddit, SourceTwitter, SourceNews}

// ScoredMention is one normalized sentiment observation. It is created by
// the normalizer from a single raw record and never mutated afterwards.
type ScoredMention struct {
	Source    Source            `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
	Text      string            `json:"text"`
	Score     float64           `json:"score"`  // polarity in [-1, 1]
	Weight    float64           `json:"weight"` // engagement weight, >= 0
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// DailySentiment is one calendar day's aggregated sentiment for a ticker.
type DailySentiment struct {
	Date              time.Time          `json:"date"`
	AvgSentimentScore float64            `json:"avg_sentiment_score"`
	MentionCount      int                `json:"mention_count"`
	PerSourceScore    map[Source]float64 `json:"per_source_score,omitempty"`
}

// PriceBar is one trading day's OHLCV for a ticker.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// IndicatorRow carries the indicators computed for one price bar. A nil
// field means the bar predates that indicator's lookback window; indicators
// are never computed on a partial window.
type IndicatorRow struct {
	Date       time.Time `json:"date"`
	Close      float64   `json:"close"`
	SMAFast    *float64  `json:"sma_fast,omitempty"`
	SMASlow    *float64  `json:"sma_slow,omitempty"`
	Momentum   *float64  `json:"momentum,omitempty"`
	Volatility *float64  `json:"volatility,omitempty"`
	RSI        *float64  `json:"rsi,omitempty"`
	BollUpper  *float64  `json:"boll_upper,omitempty"`
	BollLower  *float64  `json:"boll_lower,omitempty"`
}

// AvailableIndicators counts the non-nil indicator fields of the row.
func (r IndicatorRow) AvailableIndicators() int {
	n := 0
	for _, v := range []*float64{r.SMAFast, r.SMASlow, r.Momentum, r.Volatility, r.RSI, r.BollUpper, r.BollLower} {
		if v != nil {
			n++
		}
	}
	return n
}

// SignalType is the discrete trading decision.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
	SignalHold SignalType = "hold"
)

// ContributingScores are the raw sub-scores that were blended into a signal,
// kept for auditability.
type ContributingScores struct {
	Sentiment    float64 `json:"sentiment"`
	Technical    float64 `json:"technical"`
	Composite    float64 `json:"composite"`
	MentionCount int     `json:"mention_count"`
}

// TradingSignal is the output of signal fusion for a single date.
type TradingSignal struct {
	Ticker     string             `json:"ticker"`
	Date       time.Time          `json:"date"`
	Type       SignalType         `json:"signal_type"`
	Confidence float64            `json:"confidence"` // in [0, 1]
	Reasoning  string             `json:"reasoning"`
	Scores     ContributingScores `json:"contributing_scores"`
}

// Recommendation bundles a trading signal with the sentiment series and
// indicator snapshot it was derived from.
type Recommendation struct {
	Ticker    string           `json:"ticker"`
	Signal    TradingSignal    `json:"signal"`
	Sentiment []DailySentiment `json:"sentiment"`
	Indicator *IndicatorRow    `json:"indicators,omitempty"`
}

// DailyValue is one (date, portfolio value) point of a backtest run.
type DailyValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Trade records one simulated fill.
type Trade struct {
	Date   time.Time  `json:"date"`
	Type   SignalType `json:"type"`
	Shares int64      `json:"shares"`
	Price  float64    `json:"price"`
}

// BacktestResult aggregates a simulated run. All percentage fields are in
// percent. SharpeRatio is nil when fewer than two return observations exist
// or the return variance is zero.
type BacktestResult struct {
	Ticker             string       `json:"ticker"`
	StartDate          time.Time    `json:"start_date"`
	EndDate            time.Time    `json:"end_date"`
	InitialCapital     float64      `json:"initial_capital"`
	FinalValue         float64      `json:"final_value"`
	TotalReturn        float64      `json:"total_return"`
	SharpeRatio        *float64     `json:"sharpe_ratio"`
	MaxDrawdown        float64      `json:"max_drawdown"`
	WinRate            float64      `json:"win_rate"`
	SP500Return        float64      `json:"sp500_return"`
	VsSP500Performance float64      `json:"vs_sp500_performance"`
	TotalTrades        int          `json:"total_trades"`
	Trades             []Trade      `json:"trades"`
	DailyValues        []DailyValue `json:"daily_values"`
}
