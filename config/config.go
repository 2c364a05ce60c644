package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/avolkov/sentigo/models"
)

// Config carries everything the pipeline needs: data directories, API
// credentials for the collectors and the scorer, and the strategy,
// indicator and backtest parameters consumed by the core.
type Config struct {
	ProjectDir   string `json:"project_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	DBPath       string `json:"db_path"`

	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`

	// Scorer
	OpenAIAPIKey string `json:"openai_api_key"`
	ScoringModel string `json:"scoring_model"`

	// Collectors
	TwitterBearerToken string `json:"twitter_bearer_token"`
	RedditUserAgent    string `json:"reddit_user_agent"`

	// HTTP server
	ServerHost string `json:"server_host"`
	ServerPort int    `json:"server_port"`

	Strategy  StrategyConfig  `json:"strategy"`
	Indicator IndicatorConfig `json:"indicator"`
	Backtest  BacktestConfig  `json:"backtest"`
}

// MissingSentimentPolicy decides what fusion does for a date with no
// sentiment observations.
type MissingSentimentPolicy string

const (
	// MissingSentimentNeutral scores the day 0 and keeps the configured
	// weights, discounting confidence.
	MissingSentimentNeutral MissingSentimentPolicy = "neutral"
	// MissingSentimentReweight shifts the sentiment weight onto the
	// technical weight for that day.
	MissingSentimentReweight MissingSentimentPolicy = "reweight"
)

// StrategyConfig parameterizes signal fusion.
type StrategyConfig struct {
	SentimentWeight  float64                `json:"sentiment_weight"`
	TechnicalWeight  float64                `json:"technical_weight"`
	BuyThreshold     float64                `json:"buy_threshold"`
	SellThreshold    float64                `json:"sell_threshold"`
	MissingSentiment MissingSentimentPolicy `json:"missing_sentiment"`
}

// IndicatorConfig sets the lookback windows for the indicator engine.
type IndicatorConfig struct {
	SMAFastWindow    int `json:"sma_fast_window"`
	SMASlowWindow    int `json:"sma_slow_window"`
	MomentumWindow   int `json:"momentum_window"`
	VolatilityWindow int `json:"volatility_window"`
	RSIWindow        int `json:"rsi_window"`
	BollingerWindow  int `json:"bollinger_window"`
}

// LongestWindow returns the largest configured lookback.
func (c IndicatorConfig) LongestWindow() int {
	longest := 0
	for _, w := range []int{c.SMAFastWindow, c.SMASlowWindow, c.MomentumWindow, c.VolatilityWindow, c.RSIWindow, c.BollingerWindow} {
		if w > longest {
			longest = w
		}
	}
	return longest
}

// BacktestConfig parameterizes the simulator.
type BacktestConfig struct {
	InitialCapital     float64 `json:"initial_capital"`
	BuyFraction        float64 `json:"buy_fraction"`  // fraction of cash deployed per buy
	SellFraction       float64 `json:"sell_fraction"` // fraction of position sold per sell
	TransactionCostPct float64 `json:"transaction_cost_pct"`
	BenchmarkTicker    string  `json:"benchmark_ticker"`
}

// DefaultConfig builds the documented defaults, then applies .env and
// environment overrides.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	_ = godotenv.Load()
	cfg.loadFromEnv()

	return cfg
}

// DefaultConfigWithRoot builds the defaults rooted at the given directory,
// without consulting the environment.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:   root,
		DataDir:      filepath.Join(root, "data"),
		DataCacheDir: filepath.Join(root, "data", "cache"),
		DBPath:       filepath.Join(root, "data", "sentigo.db"),

		CacheEnabled: true,
		Debug:        false,

		ScoringModel:    "gpt-4o-mini",
		RedditUserAgent: "sentigo/1.0",

		ServerHost: "127.0.0.1",
		ServerPort: 8080,

		Strategy: StrategyConfig{
			SentimentWeight:  0.6,
			TechnicalWeight:  0.4,
			BuyThreshold:     0.3,
			SellThreshold:    -0.3,
			MissingSentiment: MissingSentimentNeutral,
		},
		Indicator: IndicatorConfig{
			SMAFastWindow:    20,
			SMASlowWindow:    50,
			MomentumWindow:   10,
			VolatilityWindow: 20,
			RSIWindow:        14,
			BollingerWindow:  20,
		},
		Backtest: BacktestConfig{
			InitialCapital:     100000,
			BuyFraction:        0.5,
			SellFraction:       1.0,
			TransactionCostPct: 0.001,
			BenchmarkTicker:    "^GSPC",
		},
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}
	if val := os.Getenv("SENTIGO_DB_PATH"); val != "" {
		c.DBPath = val
	}

	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if cache, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = cache
		}
	}
	if val := os.Getenv("SENTIGO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("SCORING_MODEL"); val != "" {
		c.ScoringModel = val
	}
	if val := os.Getenv("TWITTER_BEARER_TOKEN"); val != "" {
		c.TwitterBearerToken = val
	}
	if val := os.Getenv("REDDIT_USER_AGENT"); val != "" {
		c.RedditUserAgent = val
	}

	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.ServerHost = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.ServerPort = port
		}
	}

	if val := os.Getenv("SENTIMENT_WEIGHT"); val != "" {
		if w, err := strconv.ParseFloat(val, 64); err == nil {
			c.Strategy.SentimentWeight = w
		}
	}
	if val := os.Getenv("TECHNICAL_WEIGHT"); val != "" {
		if w, err := strconv.ParseFloat(val, 64); err == nil {
			c.Strategy.TechnicalWeight = w
		}
	}
	if val := os.Getenv("BUY_THRESHOLD"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.Strategy.BuyThreshold = v
		}
	}
	if val := os.Getenv("SELL_THRESHOLD"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.Strategy.SellThreshold = v
		}
	}
	if val := os.Getenv("INITIAL_CAPITAL"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.Backtest.InitialCapital = v
		}
	}
	if val := os.Getenv("BENCHMARK_TICKER"); val != "" {
		c.Backtest.BenchmarkTicker = val
	}
}

// Validate rejects configurations the core must never run with. Every
// violation is reported as models.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if err := c.Indicator.Validate(); err != nil {
		return err
	}
	return c.Backtest.Validate()
}

// Validate checks the fusion parameters.
func (c StrategyConfig) Validate() error {
	if c.SentimentWeight < 0 || c.TechnicalWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative (sentiment=%v technical=%v)",
			models.ErrConfiguration, c.SentimentWeight, c.TechnicalWeight)
	}
	if math.Abs(c.SentimentWeight+c.TechnicalWeight-1.0) > 1e-9 {
		return fmt.Errorf("%w: sentiment and technical weights must sum to 1, got %v",
			models.ErrConfiguration, c.SentimentWeight+c.TechnicalWeight)
	}
	if c.BuyThreshold <= 0 {
		return fmt.Errorf("%w: buy threshold must be positive, got %v", models.ErrConfiguration, c.BuyThreshold)
	}
	if c.SellThreshold >= 0 {
		return fmt.Errorf("%w: sell threshold must be negative, got %v", models.ErrConfiguration, c.SellThreshold)
	}
	switch c.MissingSentiment {
	case MissingSentimentNeutral, MissingSentimentReweight, "":
	default:
		return fmt.Errorf("%w: unknown missing-sentiment policy %q", models.ErrConfiguration, c.MissingSentiment)
	}
	return nil
}

// Validate checks the indicator windows.
func (c IndicatorConfig) Validate() error {
	windows := map[string]int{
		"sma_fast":   c.SMAFastWindow,
		"sma_slow":   c.SMASlowWindow,
		"momentum":   c.MomentumWindow,
		"volatility": c.VolatilityWindow,
		"rsi":        c.RSIWindow,
		"bollinger":  c.BollingerWindow,
	}
	for name, w := range windows {
		if w <= 0 {
			return fmt.Errorf("%w: %s window must be positive, got %d", models.ErrConfiguration, name, w)
		}
	}
	return nil
}

// Validate checks the simulator parameters.
func (c BacktestConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %v", models.ErrConfiguration, c.InitialCapital)
	}
	if c.BuyFraction <= 0 || c.BuyFraction > 1 {
		return fmt.Errorf("%w: buy fraction must be in (0,1], got %v", models.ErrConfiguration, c.BuyFraction)
	}
	if c.SellFraction <= 0 || c.SellFraction > 1 {
		return fmt.Errorf("%w: sell fraction must be in (0,1], got %v", models.ErrConfiguration, c.SellFraction)
	}
	if c.TransactionCostPct < 0 || c.TransactionCostPct >= 1 {
		return fmt.Errorf("%w: transaction cost must be in [0,1), got %v", models.ErrConfiguration, c.TransactionCostPct)
	}
	if strings.TrimSpace(c.BenchmarkTicker) == "" {
		return fmt.Errorf("%w: benchmark ticker is required", models.ErrConfiguration)
	}
	return nil
}

// EnsureDirectories creates the data directories if missing.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.DataCacheDir, filepath.Dir(c.DBPath)}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
