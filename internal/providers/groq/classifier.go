// Package groq classifies transcripts into response channels using a fast
// chat model behind Groq's OpenAI-compatible API.
package groq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"spritely/internal/domain"
	"spritely/internal/prompts"
)

// Config controls the classifier backend.
type Config struct {
	APIKey     string
	APIBaseURL string
	Model      string
}

// Classifier implements ports.Classifier.
type Classifier struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewClassifier(cfg Config, logger *zap.Logger) (*Classifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("GROQ_API_KEY is not configured")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBaseURL != "" {
		clientCfg.BaseURL = cfg.APIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "llama3-70b-8192"
	}
	return &Classifier{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Classify asks the detector model for a channel tag and applies the keyword
// decision rule to its raw output.
func (c *Classifier) Classify(ctx context.Context, prompt string) (domain.Channel, bool, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.ResponseDetector},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("response type detection failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", false, errors.New("response type detection returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	channel, lowConfidence := DecideChannel(raw)
	c.logger.Debug("response type determined",
		zap.String("raw", raw),
		zap.String("channel", string(channel)),
		zap.Bool("lowConfidence", lowConfidence),
	)
	return channel, lowConfidence, nil
}

// speakKeywords is the fallback scan applied when the detector emitted
// neither expected tag. The detector is itself a probabilistic model, so the
// scan is a safety net rather than an error path.
var speakKeywords = []string{"speak", "speech", "voice", "audio"}

// DecideChannel maps raw detector output to a channel. The second return is
// true when no keyword matched at all and the clipboard default was applied.
func DecideChannel(raw string) (domain.Channel, bool) {
	lowered := strings.ToLower(raw)

	if strings.Contains(lowered, "speak") {
		return domain.ChannelSpeak, false
	}
	if strings.Contains(lowered, "clipboard") {
		return domain.ChannelClipboard, false
	}

	for _, keyword := range speakKeywords {
		if strings.Contains(lowered, keyword) {
			return domain.ChannelSpeak, false
		}
	}
	return domain.ChannelClipboard, true
}
