package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/sentigo/config"
	"github.com/avolkov/sentigo/models"
)

func defaultStrategy() config.StrategyConfig {
	return config.StrategyConfig{
		SentimentWeight:  0.6,
		TechnicalWeight:  0.4,
		BuyThreshold:     0.3,
		SellThreshold:    -0.3,
		MissingSentiment: config.MissingSentimentNeutral,
	}
}

func fullRow(close float64) models.IndicatorRow {
	smaFast := close * 0.95
	smaSlow := close * 0.9
	momentum := 5.0
	volatility := 2.0
	rsi := 45.0
	upper := close * 1.1
	lower := close * 0.85
	return models.IndicatorRow{
		Date:       time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Close:      close,
		SMAFast:    &smaFast,
		SMASlow:    &smaSlow,
		Momentum:   &momentum,
		Volatility: &volatility,
		RSI:        &rsi,
		BollUpper:  &upper,
		BollLower:  &lower,
	}
}

func TestSentimentOnlyStrongPositiveIsBuy(t *testing.T) {
	eng, err := NewEngine(config.StrategyConfig{
		SentimentWeight: 1, TechnicalWeight: 0,
		BuyThreshold: 0.3, SellThreshold: -0.3,
	})
	require.NoError(t, err)

	sent := &models.DailySentiment{Date: time.Now(), AvgSentimentScore: 0.9, MentionCount: 12}
	sig := eng.GenerateSignal("AAPL", sent, fullRow(100))

	assert.Equal(t, models.SignalBuy, sig.Type)
	assert.InDelta(t, 0.9, sig.Scores.Composite, 1e-9)
	assert.InDelta(t, 0.9, sig.Scores.Sentiment, 1e-9)
}

func TestStrongNegativeSentimentIsSell(t *testing.T) {
	eng, err := NewEngine(config.StrategyConfig{
		SentimentWeight: 1, TechnicalWeight: 0,
		BuyThreshold: 0.3, SellThreshold: -0.3,
	})
	require.NoError(t, err)

	sent := &models.DailySentiment{Date: time.Now(), AvgSentimentScore: -0.8, MentionCount: 5}
	sig := eng.GenerateSignal("AAPL", sent, fullRow(100))

	assert.Equal(t, models.SignalSell, sig.Type)
}

func TestWeakCompositeIsHold(t *testing.T) {
	eng, err := NewEngine(defaultStrategy())
	require.NoError(t, err)

	sent := &models.DailySentiment{Date: time.Now(), AvgSentimentScore: 0.1, MentionCount: 3}
	sig := eng.GenerateSignal("AAPL", sent, models.IndicatorRow{Close: 100})

	assert.Equal(t, models.SignalHold, sig.Type)
}

func TestGenerateSignalIsPure(t *testing.T) {
	eng, err := NewEngine(defaultStrategy())
	require.NoError(t, err)

	sent := &models.DailySentiment{Date: time.Now(), AvgSentimentScore: 0.5, MentionCount: 7}
	row := fullRow(100)

	first := eng.GenerateSignal("AAPL", sent, row)
	second := eng.GenerateSignal("AAPL", sent, row)
	assert.Equal(t, first, second)
}

func TestMissingSentimentNeutralPolicy(t *testing.T) {
	eng, err := NewEngine(defaultStrategy())
	require.NoError(t, err)

	sig := eng.GenerateSignal("AAPL", nil, fullRow(100))

	assert.Zero(t, sig.Scores.Sentiment)
	assert.Zero(t, sig.Scores.MentionCount)
	assert.Contains(t, sig.Reasoning, "No sentiment data")

	// Same technical picture with sentiment present must be at least as
	// confident as the no-sentiment call.
	sent := &models.DailySentiment{Date: time.Now(), AvgSentimentScore: sig.Scores.Technical, MentionCount: 10}
	withSent := eng.GenerateSignal("AAPL", sent, fullRow(100))
	if withSent.Scores.Composite == sig.Scores.Composite {
		assert.GreaterOrEqual(t, withSent.Confidence, sig.Confidence)
	}
}

func TestMissingSentimentReweightPolicy(t *testing.T) {
	cfg := defaultStrategy()
	cfg.MissingSentiment = config.MissingSentimentReweight
	eng, err := NewEngine(cfg)
	require.NoError(t, err)

	row := fullRow(100)
	sig := eng.GenerateSignal("AAPL", nil, row)

	// With the weight shifted, the composite equals the technical score
	// alone instead of being diluted by the neutral sentiment.
	assert.InDelta(t, sig.Scores.Technical, sig.Scores.Composite, 1e-9)
}

func TestConfidenceBoundedAndDiscounted(t *testing.T) {
	eng, err := NewEngine(defaultStrategy())
	require.NoError(t, err)

	many := &models.DailySentiment{Date: time.Now(), AvgSentimentScore: 0.9, MentionCount: 50}
	few := &models.DailySentiment{Date: time.Now(), AvgSentimentScore: 0.9, MentionCount: 1}
	row := fullRow(100)

	sigMany := eng.GenerateSignal("AAPL", many, row)
	sigFew := eng.GenerateSignal("AAPL", few, row)

	assert.GreaterOrEqual(t, sigMany.Confidence, sigFew.Confidence)
	for _, sig := range []models.TradingSignal{sigMany, sigFew} {
		assert.GreaterOrEqual(t, sig.Confidence, 0.0)
		assert.LessOrEqual(t, sig.Confidence, 1.0)
		// Data sufficiency discounts; it never lifts confidence above the
		// score-derived ceiling.
		assert.LessOrEqual(t, sig.Confidence, clamp(abs(sig.Scores.Composite), 0, 1)+1e-9)
	}

	bare := eng.GenerateSignal("AAPL", few, models.IndicatorRow{Close: 100})
	assert.LessOrEqual(t, bare.Confidence, sigFew.Confidence)
}

func TestTechnicalScoreBearishSetup(t *testing.T) {
	close := 80.0
	smaFast := 90.0
	smaSlow := 100.0
	momentum := -8.0
	rsi := 80.0
	upper := 95.0
	lower := 79.0

	row := models.IndicatorRow{
		Close: close, SMAFast: &smaFast, SMASlow: &smaSlow,
		Momentum: &momentum, RSI: &rsi, BollUpper: &upper, BollLower: &lower,
	}

	score, notes := technicalScore(row)
	assert.Less(t, score, 0.0)
	assert.GreaterOrEqual(t, score, -1.0)
	assert.Contains(t, notes, "price below both moving averages")
	assert.Contains(t, notes, "RSI overbought")
}

func TestTechnicalScoreNoIndicatorsIsNeutral(t *testing.T) {
	score, notes := technicalScore(models.IndicatorRow{Close: 100})
	assert.Zero(t, score)
	assert.Empty(t, notes)
}

func TestReasoningNamesDominantFactor(t *testing.T) {
	eng, err := NewEngine(defaultStrategy())
	require.NoError(t, err)

	sent := &models.DailySentiment{Date: time.Now(), AvgSentimentScore: 0.95, MentionCount: 40}
	sig := eng.GenerateSignal("AAPL", sent, models.IndicatorRow{Close: 100})

	assert.Contains(t, sig.Reasoning, "Sentiment factors dominate")
	assert.Contains(t, sig.Reasoning, "BUY")
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	_, err := NewEngine(config.StrategyConfig{SentimentWeight: 0.7, TechnicalWeight: 0.7, BuyThreshold: 0.3, SellThreshold: -0.3})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
