// Package storage persists mentions, signals and backtest results in
// sqlite so repeated queries do not refetch or rescore.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/avolkov/sentigo/models"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at dbPath.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS mentions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    source TEXT NOT NULL,
    mention_ts DATETIME NOT NULL,
    text TEXT NOT NULL,
    score REAL NOT NULL,
    weight REAL NOT NULL,
    metadata TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_mentions_ticker_ts ON mentions(ticker, mention_ts);

CREATE TABLE IF NOT EXISTS signals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    signal_date DATETIME NOT NULL,
    signal_type TEXT NOT NULL,
    confidence REAL NOT NULL,
    reasoning TEXT NOT NULL,
    sentiment_score REAL NOT NULL,
    technical_score REAL NOT NULL,
    composite_score REAL NOT NULL,
    mention_count INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_signals_ticker_date ON signals(ticker, signal_date);

CREATE TABLE IF NOT EXISTS backtest_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    start_date DATETIME NOT NULL,
    end_date DATETIME NOT NULL,
    result TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveMentions stores a batch of scored mentions for a ticker.
func (s *Store) SaveMentions(ctx context.Context, ticker string, mentions []models.ScoredMention) error {
	if len(mentions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO mentions (ticker, source, mention_ts, text, score, weight, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare mention insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range mentions {
		metadata, _ := json.Marshal(m.Metadata)
		if _, err := stmt.ExecContext(ctx, ticker, string(m.Source), m.Timestamp.UTC(), m.Text, m.Score, m.Weight, string(metadata)); err != nil {
			return fmt.Errorf("insert mention: %w", err)
		}
	}

	return tx.Commit()
}

// GetMentions loads the stored mentions for a ticker whose own timestamp
// falls inside [from, to], ascending.
func (s *Store) GetMentions(ctx context.Context, ticker string, from, to time.Time) ([]models.ScoredMention, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source, mention_ts, text, score, weight, metadata
FROM mentions
WHERE ticker = ? AND mention_ts >= ? AND mention_ts <= ?
ORDER BY mention_ts ASC
`, ticker, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query mentions: %w", err)
	}
	defer rows.Close()

	var mentions []models.ScoredMention
	for rows.Next() {
		var m models.ScoredMention
		var source, metadata string
		if err := rows.Scan(&source, &m.Timestamp, &m.Text, &m.Score, &m.Weight, &metadata); err != nil {
			return nil, fmt.Errorf("scan mention: %w", err)
		}
		m.Source = models.Source(source)
		m.Timestamp = m.Timestamp.UTC()
		if metadata != "" && metadata != "null" {
			_ = json.Unmarshal([]byte(metadata), &m.Metadata)
		}
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}

// SaveSignal stores one generated trading signal.
func (s *Store) SaveSignal(ctx context.Context, sig models.TradingSignal) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO signals (ticker, signal_date, signal_type, confidence, reasoning,
    sentiment_score, technical_score, composite_score, mention_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, sig.Ticker, sig.Date.UTC(), string(sig.Type), sig.Confidence, sig.Reasoning,
		sig.Scores.Sentiment, sig.Scores.Technical, sig.Scores.Composite, sig.Scores.MentionCount)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// GetSignals loads stored signals for a ticker, most recent first.
func (s *Store) GetSignals(ctx context.Context, ticker string, limit int) ([]models.TradingSignal, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT ticker, signal_date, signal_type, confidence, reasoning,
    sentiment_score, technical_score, composite_score, mention_count
FROM signals
WHERE ticker = ?
ORDER BY signal_date DESC
LIMIT ?
`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var signals []models.TradingSignal
	for rows.Next() {
		var sig models.TradingSignal
		var sigType string
		if err := rows.Scan(&sig.Ticker, &sig.Date, &sigType, &sig.Confidence, &sig.Reasoning,
			&sig.Scores.Sentiment, &sig.Scores.Technical, &sig.Scores.Composite, &sig.Scores.MentionCount); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Type = models.SignalType(sigType)
		sig.Date = sig.Date.UTC()
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// SaveBacktestResult stores a backtest result as a JSON document keyed by
// ticker and window.
func (s *Store) SaveBacktestResult(ctx context.Context, result *models.BacktestResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal backtest result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO backtest_results (ticker, start_date, end_date, result)
VALUES (?, ?, ?, ?)
`, result.Ticker, result.StartDate.UTC(), result.EndDate.UTC(), string(doc))
	if err != nil {
		return fmt.Errorf("insert backtest result: %w", err)
	}
	return nil
}

// GetLatestBacktestResult loads the most recent stored result for a ticker
// and window, or nil when none exists.
func (s *Store) GetLatestBacktestResult(ctx context.Context, ticker string, start, end time.Time) (*models.BacktestResult, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
SELECT result FROM backtest_results
WHERE ticker = ? AND start_date = ? AND end_date = ?
ORDER BY created_at DESC
LIMIT 1
`, ticker, start.UTC(), end.UTC()).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query backtest result: %w", err)
	}

	var result models.BacktestResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return nil, fmt.Errorf("unmarshal backtest result: %w", err)
	}
	return &result, nil
}
