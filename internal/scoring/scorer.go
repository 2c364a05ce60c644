// Package scoring wraps the LLM sentiment scorer behind a small interface
// so the pipeline never depends on a concrete provider.
package scoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"
)

// Scorer returns a polarity in [-1, 1] for a piece of mention text.
type Scorer interface {
	Score(ctx context.Context, ticker, text string) (float64, error)
}

// GPTScorer scores text with an OpenAI chat model. Individual failures are
// the caller's to drop; the scorer itself never retries a whole batch.
type GPTScorer struct {
	client openai.Client
	model  openai.ChatModel
	delay  time.Duration
}

const scoringPrompt = `You are a financial sentiment rater. Given a social media post or news snippet about the stock %s, reply with a single number between -1.0 (extremely bearish) and 1.0 (extremely bullish). Reply with the number only.`

// NewGPTScorer builds a scorer for the given model (gpt-4o-mini when empty).
func NewGPTScorer(apiKey, model string) (*GPTScorer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &GPTScorer{
		client: client,
		model:  openai.ChatModel(model),
		delay:  200 * time.Millisecond,
	}, nil
}

// Score asks the model for a single polarity float.
func (s *GPTScorer) Score(ctx context.Context, ticker, text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("text is empty")
	}
	if len(text) > 2000 {
		text = text[:2000]
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(scoringPrompt, ticker)),
			openai.UserMessage(text),
		},
		Model: s.model,
	})
	if err != nil {
		return 0, fmt.Errorf("score request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("score request: empty response")
	}

	return parsePolarity(resp.Choices[0].Message.Content)
}

// ScoreBatch scores texts sequentially with a small delay between calls.
// Failed texts are skipped and logged; ok[i] reports whether scores[i] is
// usable. A partial batch is not an error.
func (s *GPTScorer) ScoreBatch(ctx context.Context, ticker string, texts []string) (scores []float64, ok []bool) {
	scores = make([]float64, len(texts))
	ok = make([]bool, len(texts))

	for i, text := range texts {
		if i > 0 && s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return scores, ok
			}
		}

		score, err := s.Score(ctx, ticker, text)
		if err != nil {
			log.Debug().Err(err).Str("ticker", ticker).Int("index", i).Msg("mention scoring failed, dropping")
			continue
		}
		scores[i] = score
		ok[i] = true
	}
	return scores, ok
}

// parsePolarity extracts the float from a model reply, tolerating stray
// formatting around the number.
func parsePolarity(content string) (float64, error) {
	content = strings.TrimSpace(content)
	content = strings.Trim(content, "`\"' \n")

	if v, err := strconv.ParseFloat(content, 64); err == nil {
		return clamp(v), nil
	}

	for _, field := range strings.Fields(content) {
		field = strings.Trim(field, ".,;:()")
		if v, err := strconv.ParseFloat(field, 64); err == nil {
			return clamp(v), nil
		}
	}
	return 0, fmt.Errorf("no polarity in scorer reply %q", content)
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
