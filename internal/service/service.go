// Package service wires the collectors, scorer and core engines into the
// operations the CLI and HTTP layers expose.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/avolkov/sentigo/config"
	"github.com/avolkov/sentigo/internal/backtest"
	"github.com/avolkov/sentigo/internal/indicators"
	"github.com/avolkov/sentigo/internal/scoring"
	"github.com/avolkov/sentigo/internal/sentiment"
	"github.com/avolkov/sentigo/internal/storage"
	"github.com/avolkov/sentigo/internal/strategy"
	"github.com/avolkov/sentigo/models"
	"github.com/avolkov/sentigo/pkg/dataflows"
)

// RedditSource supplies raw reddit mentions for a ticker.
type RedditSource interface {
	GetStockMentions(symbol string) ([]*dataflows.RedditPost, error)
}

// TwitterSource supplies raw tweets for a ticker.
type TwitterSource interface {
	GetStockMentions(symbol string, maxResults int) ([]*dataflows.Tweet, error)
}

// NewsSource supplies raw news articles for a ticker.
type NewsSource interface {
	GetStockNews(symbol string, maxResults int) ([]*dataflows.NewsArticle, error)
}

// MarketSource supplies daily price bars and the benchmark series.
type MarketSource interface {
	GetHistoricalData(symbol string, start, end time.Time) ([]models.PriceBar, error)
	GetBenchmarkData(benchmark string, start, end time.Time) ([]models.PriceBar, error)
}

// Service runs the sentiment-fusion pipeline for single tickers. The
// store is optional; without it nothing is persisted and historical
// queries re-collect from the live sources.
type Service struct {
	reddit  RedditSource
	twitter TwitterSource
	news    NewsSource
	market  MarketSource
	scorer  scoring.Scorer
	store   *storage.Store
	log     zerolog.Logger

	// mu guards cfg and fusion, which config hot reload swaps at run time.
	mu     sync.RWMutex
	cfg    *config.Config
	fusion *strategy.Engine
}

// New builds a service. scorer may be nil (mentions are then skipped and
// signals fall back to technical-only fusion); store may be nil.
func New(cfg *config.Config, reddit RedditSource, twitter TwitterSource, news NewsSource,
	market MarketSource, scorer scoring.Scorer, store *storage.Store, logger zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fusion, err := strategy.NewEngine(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:     cfg,
		reddit:  reddit,
		twitter: twitter,
		news:    news,
		market:  market,
		scorer:  scorer,
		store:   store,
		fusion:  fusion,
		log:     logger.With().Str("component", "service").Logger(),
	}, nil
}

// ApplyStrategy swaps the fusion and simulator parameters at run time,
// used by config hot reload. Invalid parameters are rejected and leave
// the current ones in place.
func (s *Service) ApplyStrategy(strategyCfg config.StrategyConfig, backtestCfg config.BacktestConfig) error {
	fusion, err := strategy.NewEngine(strategyCfg)
	if err != nil {
		return err
	}
	if err := backtestCfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.fusion = fusion
	s.cfg.Strategy = strategyCfg
	s.cfg.Backtest = backtestCfg
	s.mu.Unlock()

	s.log.Info().
		Float64("sentiment_weight", strategyCfg.SentimentWeight).
		Float64("buy_threshold", strategyCfg.BuyThreshold).
		Msg("strategy parameters updated")
	return nil
}

// Recommend produces the current trading signal for a ticker together
// with the sentiment series and indicator row it was derived from.
func (s *Service) Recommend(ctx context.Context, ticker string) (*models.Recommendation, error) {
	ticker = dataflows.NormalizeSymbol(ticker)
	now := time.Now().UTC()

	s.mu.RLock()
	fusion := s.fusion
	indCfg := s.cfg.Indicator
	s.mu.RUnlock()

	// Enough history for the longest indicator window plus slack for
	// non-trading days.
	lookbackDays := indCfg.LongestWindow()*2 + 30
	bars, err := s.market.GetHistoricalData(ticker, now.AddDate(0, 0, -lookbackDays), now)
	if err != nil {
		return nil, fmt.Errorf("fetch price history for %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no price history for %s", models.ErrInsufficientData, ticker)
	}

	mentions := s.collectAndScore(ctx, ticker)
	sentSeries := sentiment.Aggregate(mentions, now.AddDate(0, 0, -7), now)

	rows, err := indicators.Compute(bars, indCfg)
	if err != nil {
		return nil, err
	}
	latestRow := rows[len(rows)-1]

	sig := fusion.GenerateSignal(ticker, sentiment.Latest(sentSeries), latestRow)

	if s.store != nil {
		if err := s.store.SaveMentions(ctx, ticker, mentions); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("persist mentions failed")
		}
		if err := s.store.SaveSignal(ctx, sig); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("persist signal failed")
		}
	}

	s.log.Info().
		Str("ticker", ticker).
		Str("signal", string(sig.Type)).
		Float64("confidence", sig.Confidence).
		Int("mentions", sig.Scores.MentionCount).
		Msg("recommendation generated")

	return &models.Recommendation{
		Ticker:    ticker,
		Signal:    sig,
		Sentiment: sentSeries,
		Indicator: &latestRow,
	}, nil
}

// HistoricalSentiment returns the daily sentiment series for a range,
// preferring stored mentions over live collection. Both bounds are
// calendar days, "to" inclusive; from == to asks for a single day.
func (s *Service) HistoricalSentiment(ctx context.Context, ticker string, from, to time.Time) ([]models.DailySentiment, error) {
	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s is after to %s",
			models.ErrInvalidRange, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	ticker = dataflows.NormalizeSymbol(ticker)

	var mentions []models.ScoredMention
	if s.store != nil {
		// Widen the timestamp query to the full calendar days the
		// aggregator will keep; it discards anything past "to"'s day.
		fromDay, nextDay := calendarSpan(from, to)
		stored, err := s.store.GetMentions(ctx, ticker, fromDay, nextDay)
		if err != nil {
			return nil, err
		}
		mentions = stored
	}
	if len(mentions) == 0 {
		mentions = s.collectAndScore(ctx, ticker)
	}

	return sentiment.Aggregate(mentions, from, to), nil
}

// RunBacktest replays the strategy for a ticker over [start, end].
func (s *Service) RunBacktest(ctx context.Context, ticker string, start, end time.Time) (*models.BacktestResult, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s is not before end %s",
			models.ErrInvalidRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	ticker = dataflows.NormalizeSymbol(ticker)

	s.mu.RLock()
	btCfg := s.cfg.Backtest
	indCfg := s.cfg.Indicator
	stratCfg := s.cfg.Strategy
	s.mu.RUnlock()

	engine, err := backtest.NewEngine(btCfg, indCfg, stratCfg)
	if err != nil {
		return nil, err
	}

	// Fetch extra leading history so the window's first days still have a
	// full indicator lookback.
	padding := indCfg.LongestWindow()*2 + 30
	bars, err := s.market.GetHistoricalData(ticker, start.AddDate(0, 0, -padding), end)
	if err != nil {
		return nil, fmt.Errorf("fetch price history for %s: %w", ticker, err)
	}

	benchBars, err := s.market.GetBenchmarkData(btCfg.BenchmarkTicker, start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("benchmark", btCfg.BenchmarkTicker).Msg("benchmark fetch failed, comparing against zero return")
		benchBars = nil
	}

	sentSeries, err := s.HistoricalSentiment(ctx, ticker, start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("sentiment history unavailable, running technical-only")
		sentSeries = nil
	}

	result, err := engine.Run(ticker, bars, benchBars, sentSeries, start, end)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SaveBacktestResult(ctx, result); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("persist backtest result failed")
		}
	}

	s.log.Info().
		Str("ticker", ticker).
		Float64("total_return", result.TotalReturn).
		Float64("vs_sp500", result.VsSP500Performance).
		Int("trades", result.TotalTrades).
		Msg("backtest complete")

	return result, nil
}

// calendarSpan floors from to its UTC day start and extends to through
// the end of its UTC calendar day.
func calendarSpan(from, to time.Time) (time.Time, time.Time) {
	from = from.UTC()
	to = to.UTC()
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	nextDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return fromDay, nextDay
}

// collectAndScore gathers raw mentions from every configured source,
// scores them and normalizes the survivors. Per-source and per-mention
// failures are logged and dropped; an empty result is valid.
func (s *Service) collectAndScore(ctx context.Context, ticker string) []models.ScoredMention {
	if s.scorer == nil {
		return nil
	}

	normalizer := sentiment.NewNormalizer()
	var mentions []models.ScoredMention

	if s.reddit != nil {
		posts, err := s.reddit.GetStockMentions(ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("reddit collection failed")
		}
		for _, post := range posts {
			if post == nil {
				normalizer.CountRejected()
				continue
			}
			score, err := s.scorer.Score(ctx, ticker, post.Title+" "+post.Content)
			if err != nil {
				s.log.Debug().Err(err).Msg("reddit mention scoring failed, dropping")
				continue
			}
			if m := normalizer.NormalizeRedditPost(post, score); m != nil {
				mentions = append(mentions, *m)
			}
		}
	}

	if s.twitter != nil {
		tweets, err := s.twitter.GetStockMentions(ticker, 50)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("twitter collection failed")
		}
		for _, tweet := range tweets {
			if tweet == nil {
				normalizer.CountRejected()
				continue
			}
			score, err := s.scorer.Score(ctx, ticker, tweet.Text)
			if err != nil {
				s.log.Debug().Err(err).Msg("tweet scoring failed, dropping")
				continue
			}
			if m := normalizer.NormalizeTweet(tweet, score); m != nil {
				mentions = append(mentions, *m)
			}
		}
	}

	if s.news != nil {
		articles, err := s.news.GetStockNews(ticker, 20)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("news collection failed")
		}
		for _, article := range articles {
			if article == nil {
				normalizer.CountRejected()
				continue
			}
			score, err := s.scorer.Score(ctx, ticker, article.Title+" "+article.Content)
			if err != nil {
				s.log.Debug().Err(err).Msg("article scoring failed, dropping")
				continue
			}
			if m := normalizer.NormalizeNewsArticle(article, score); m != nil {
				mentions = append(mentions, *m)
			}
		}
	}

	if rejected := normalizer.Rejected(); rejected > 0 {
		s.log.Debug().Int("rejected", rejected).Str("ticker", ticker).Msg("unusable mention records dropped")
	}

	return mentions
}
