package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when no client or model is available. Callers
// treat it like any other completion failure and use their fallback.
var ErrNotConfigured = errors.New("completion service not configured")

// Observer is notified once per completion call with the calling stage and
// its outcome ("ok", "error", "timeout", "empty"). Used for metrics.
type Observer func(stage, outcome string, elapsed time.Duration)

// Completer issues single-turn chat completions with an explicit timeout.
type Completer struct {
	Client      Client
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
	Observe     Observer
}

// Complete sends a system and user message and returns the trimmed assistant
// text. The call is bounded by c.Timeout when positive.
func (c *Completer) Complete(ctx context.Context, stage, system, user string) (string, error) {
	if c == nil || c.Client == nil || strings.TrimSpace(c.Model) == "" {
		return "", ErrNotConfigured
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		N:           1,
	}
	start := time.Now()
	resp, err := c.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		c.observe(stage, outcome, start)
		log.Debug().Err(err).Str("stage", stage).Str("model", c.Model).Msg("completion failed")
		return "", fmt.Errorf("%s completion: %w", stage, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.observe(stage, "empty", start)
		return "", fmt.Errorf("%s completion: empty response", stage)
	}
	c.observe(stage, "ok", start)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Ask is Complete followed by Parse.
func (c *Completer) Ask(ctx context.Context, stage, system, user string) Parsed {
	return Parse(c.Complete(ctx, stage, system, user))
}

func (c *Completer) observe(stage, outcome string, start time.Time) {
	if c.Observe != nil {
		c.Observe(stage, outcome, time.Since(start))
	}
}
