// Package anthropic produces the assistant's answer text via the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// Config controls the completion backend.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Completer implements ports.Completer.
type Completer struct {
	client sdk.Client
	cfg    Config
	logger *zap.Logger
}

func NewCompleter(cfg Config, logger *zap.Logger) (*Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-20241022"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Completer{
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Complete issues one messages call with the channel-specific system prompt
// and returns the full answer text.
func (c *Completer) Complete(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.cfg.Model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Temperature: sdk.Float(c.cfg.Temperature),
		System:      []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(sdk.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	result := sb.String()
	if strings.TrimSpace(result) == "" {
		return "", errors.New("completion returned no text content")
	}

	c.logger.Debug("completion received", zap.Int("length", len(result)))
	return result, nil
}
