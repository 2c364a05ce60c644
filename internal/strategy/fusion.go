// Package strategy fuses the daily sentiment series with technical
// indicators into a discrete trading signal.
package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/avolkov/sentigo/config"
	"github.com/avolkov/sentigo/models"
)

const totalIndicatorFields = 7

// Engine generates trading signals from aligned sentiment and indicator
// rows. It holds only configuration: GenerateSignal is a pure function of
// its inputs, so the backtest can replay it day by day deterministically.
type Engine struct {
	cfg config.StrategyConfig
}

// NewEngine validates the configuration and builds an engine.
func NewEngine(cfg config.StrategyConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MissingSentiment == "" {
		cfg.MissingSentiment = config.MissingSentimentNeutral
	}
	return &Engine{cfg: cfg}, nil
}

// GenerateSignal fuses one day's sentiment (nil when none exists for the
// date) with that day's indicator row. Missing sentiment is handled per
// the configured policy: scored neutral with a confidence penalty, or
// reweighted so the technical side carries the day.
func (e *Engine) GenerateSignal(ticker string, sent *models.DailySentiment, row models.IndicatorRow) models.TradingSignal {
	ws, wt := e.cfg.SentimentWeight, e.cfg.TechnicalWeight

	sentScore := 0.0
	mentionCount := 0
	if sent != nil {
		sentScore = clamp(sent.AvgSentimentScore, -1, 1)
		mentionCount = sent.MentionCount
	} else if e.cfg.MissingSentiment == config.MissingSentimentReweight {
		wt += ws
		ws = 0
	}

	techScore, techNotes := technicalScore(row)
	composite := ws*sentScore + wt*techScore

	var sigType models.SignalType
	switch {
	case composite >= e.cfg.BuyThreshold:
		sigType = models.SignalBuy
	case composite <= e.cfg.SellThreshold:
		sigType = models.SignalSell
	default:
		sigType = models.SignalHold
	}

	confidence := e.confidence(composite, mentionCount, row, sent != nil)

	return models.TradingSignal{
		Ticker:     ticker,
		Date:       row.Date,
		Type:       sigType,
		Confidence: confidence,
		Reasoning:  e.reasoning(sigType, ws*sentScore, wt*techScore, mentionCount, sent != nil, techNotes),
		Scores: models.ContributingScores{
			Sentiment:    sentScore,
			Technical:    techScore,
			Composite:    composite,
			MentionCount: mentionCount,
		},
	}
}

// technicalScore votes over the available indicator relationships and
// averages the votes, clamped to [-1, 1]. Missing indicators simply do not
// vote. Returns the score plus the notes that describe the votes.
func technicalScore(row models.IndicatorRow) (float64, []string) {
	var votes []float64
	var notes []string

	if row.SMAFast != nil && row.SMASlow != nil {
		switch {
		case row.Close > *row.SMAFast && *row.SMAFast > *row.SMASlow:
			votes = append(votes, 0.6)
			notes = append(notes, "price above both moving averages")
		case row.Close < *row.SMAFast && *row.SMAFast < *row.SMASlow:
			votes = append(votes, -0.6)
			notes = append(notes, "price below both moving averages")
		default:
			votes = append(votes, 0)
		}
	} else if row.SMAFast != nil {
		if row.Close > *row.SMAFast {
			votes = append(votes, 0.3)
			notes = append(notes, "price above fast moving average")
		} else {
			votes = append(votes, -0.3)
			notes = append(notes, "price below fast moving average")
		}
	}

	if row.Momentum != nil {
		// tanh keeps the vote bounded however large the move.
		v := math.Tanh(*row.Momentum / 10)
		votes = append(votes, v)
		if *row.Momentum > 0 {
			notes = append(notes, "positive momentum")
		} else if *row.Momentum < 0 {
			notes = append(notes, "negative momentum")
		}
	}

	if row.RSI != nil {
		switch {
		case *row.RSI < 30:
			votes = append(votes, 0.7)
			notes = append(notes, "RSI oversold")
		case *row.RSI > 70:
			votes = append(votes, -0.7)
			notes = append(notes, "RSI overbought")
		case *row.RSI < 50:
			votes = append(votes, 0.2)
		default:
			votes = append(votes, -0.2)
		}
	}

	if row.BollUpper != nil && row.BollLower != nil {
		switch {
		case row.Close <= *row.BollLower:
			votes = append(votes, 0.5)
			notes = append(notes, "price at lower Bollinger band")
		case row.Close >= *row.BollUpper:
			votes = append(votes, -0.5)
			notes = append(notes, "price at upper Bollinger band")
		default:
			votes = append(votes, 0)
		}
	}

	if len(votes) == 0 {
		return 0, nil
	}

	avg := 0.0
	for _, v := range votes {
		avg += v
	}
	avg /= float64(len(votes))
	return clamp(avg, -1, 1), notes
}

// confidence grows with |composite| and is discounted for thin data:
// few contributing mentions or missing indicator windows lower it, never
// raise it above the score-derived ceiling.
func (e *Engine) confidence(composite float64, mentionCount int, row models.IndicatorRow, haveSentiment bool) float64 {
	ceiling := clamp(math.Abs(composite), 0, 1)

	mentionFactor := math.Min(1, float64(mentionCount)/10)
	if !haveSentiment {
		mentionFactor = 0
	}
	indicatorFactor := float64(row.AvailableIndicators()) / totalIndicatorFields

	sufficiency := 0.5 + 0.25*mentionFactor + 0.25*indicatorFactor
	return ceiling * sufficiency
}

func (e *Engine) reasoning(sigType models.SignalType, sentContribution, techContribution float64, mentionCount int, haveSentiment bool, techNotes []string) string {
	var parts []string

	if haveSentiment {
		parts = append(parts, fmt.Sprintf("Sentiment analysis (%d mentions) contributes %.2f", mentionCount, sentContribution))
	} else {
		parts = append(parts, "No sentiment data available, treated as neutral")
	}

	if len(techNotes) > 3 {
		techNotes = techNotes[:3]
	}
	if len(techNotes) > 0 {
		parts = append(parts, "Technical indicators: "+strings.Join(techNotes, ", "))
	} else {
		parts = append(parts, "Limited technical indicator data")
	}

	dominant := "technical"
	if math.Abs(sentContribution) > math.Abs(techContribution) {
		dominant = "sentiment"
	}
	parts = append(parts, fmt.Sprintf("%s factors dominate; combined score suggests %s",
		strings.ToUpper(dominant[:1])+dominant[1:], strings.ToUpper(string(sigType))))

	return strings.Join(parts, ". ") + "."
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
