// Package cli implements the sentigo command line interface.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/avolkov/sentigo/config"
	"github.com/avolkov/sentigo/internal/scoring"
	"github.com/avolkov/sentigo/internal/service"
	"github.com/avolkov/sentigo/internal/storage"
	"github.com/avolkov/sentigo/pkg/dataflows"
)

// app bundles everything a command needs at run time.
type app struct {
	cfg   *config.Config
	svc   *service.Service
	store *storage.Store
	log   zerolog.Logger
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// newApp wires the collectors, scorer, store and service from config.
// Without an OpenAI key the scorer is nil and signals run technical-only.
func newApp(cfg *config.Config, debug bool) (*app, error) {
	logger := newLogger(debug)

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create data directories: %w", err)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var scorer scoring.Scorer
	if cfg.OpenAIAPIKey != "" {
		scorer, err = scoring.NewGPTScorer(cfg.OpenAIAPIKey, cfg.ScoringModel)
		if err != nil {
			store.Close()
			return nil, err
		}
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, sentiment scoring disabled")
	}

	svc, err := service.New(cfg,
		dataflows.NewRedditClient(cfg),
		dataflows.NewTwitterClient(cfg),
		dataflows.NewNewsClient(cfg),
		dataflows.NewYahooFinanceClient(cfg),
		scorer, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{cfg: cfg, svc: svc, store: store, log: logger}, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}
