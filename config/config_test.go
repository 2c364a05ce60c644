package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/sentigo/models"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 20, cfg.Indicator.SMAFastWindow)
	assert.Equal(t, 50, cfg.Indicator.SMASlowWindow)
	assert.Equal(t, 50, cfg.Indicator.LongestWindow())
	assert.Equal(t, MissingSentimentNeutral, cfg.Strategy.MissingSentiment)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"weights do not sum to 1", func(c *Config) { c.Strategy.SentimentWeight = 0.5; c.Strategy.TechnicalWeight = 0.4 }},
		{"negative weight", func(c *Config) { c.Strategy.SentimentWeight = -0.2; c.Strategy.TechnicalWeight = 1.2 }},
		{"non-positive buy threshold", func(c *Config) { c.Strategy.BuyThreshold = 0 }},
		{"non-negative sell threshold", func(c *Config) { c.Strategy.SellThreshold = 0.1 }},
		{"unknown missing-sentiment policy", func(c *Config) { c.Strategy.MissingSentiment = "drop" }},
		{"zero indicator window", func(c *Config) { c.Indicator.RSIWindow = 0 }},
		{"negative indicator window", func(c *Config) { c.Indicator.SMASlowWindow = -5 }},
		{"zero capital", func(c *Config) { c.Backtest.InitialCapital = 0 }},
		{"buy fraction above 1", func(c *Config) { c.Backtest.BuyFraction = 1.5 }},
		{"empty benchmark", func(c *Config) { c.Backtest.BenchmarkTicker = " " }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfigWithRoot(t.TempDir())
			tc.mut(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrConfiguration)
		})
	}
}

func TestWeightsMayBeFullySentiment(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.Strategy.SentimentWeight = 1
	cfg.Strategy.TechnicalWeight = 0
	require.NoError(t, cfg.Validate())
}
