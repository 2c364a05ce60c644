package dataflows

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheManagerRoundTrip(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Minute, true)

	type payload struct {
		Symbol string  `json:"symbol"`
		Score  float64 `json:"score"`
	}
	in := payload{Symbol: "AAPL", Score: 0.42}
	require.NoError(t, cache.Set("test", "roundtrip", "key1", in))

	var out payload
	require.True(t, cache.Get("test", "roundtrip", "key1", &out))
	assert.Equal(t, in, out)

	// Different key misses.
	assert.False(t, cache.Get("test", "roundtrip", "key2", &out))
}

func TestCacheManagerDisabled(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Minute, false)
	require.NoError(t, cache.Set("test", "disabled", "k", "v"))

	var out string
	assert.False(t, cache.Get("test", "disabled", "k", &out))
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	attempts := 0
	err := WithRetry(cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhausted(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	sentinel := errors.New("always fails")
	err := WithRetry(cfg, func() error { return sentinel })

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestValidateSymbol(t *testing.T) {
	assert.NoError(t, ValidateSymbol("AAPL"))
	assert.NoError(t, ValidateSymbol("brk.b"))
	assert.Error(t, ValidateSymbol(""))
	assert.Error(t, ValidateSymbol("   "))
	assert.Error(t, ValidateSymbol("WAYTOOLONGSYM"))
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol(" aapl "))
}

func TestParsePubDate(t *testing.T) {
	got, err := parsePubDate("Mon, 04 Mar 2024 15:30:00 +0000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC), got)

	_, err = parsePubDate("not a date")
	assert.Error(t, err)
}
