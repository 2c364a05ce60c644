package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolarity(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"0.7", 0.7},
		{"-0.35", -0.35},
		{" 0.9 \n", 0.9},
		{"`0.25`", 0.25},
		{"Sentiment: 0.4", 0.4},
		{"The score is -0.8.", -0.8},
		{"1.7", 1.0},   // clamped, not rejected
		{"-3.0", -1.0}, // clamped, not rejected
	}

	for _, tc := range cases {
		got, err := parsePolarity(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
	}
}

func TestParsePolarityRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "bullish", "no number here"} {
		_, err := parsePolarity(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNewGPTScorerRequiresKey(t *testing.T) {
	_, err := NewGPTScorer("", "gpt-4o-mini")
	assert.Error(t, err)

	s, err := NewGPTScorer("sk-test", "")
	require.NoError(t, err)
	assert.NotNil(t, s)
}
