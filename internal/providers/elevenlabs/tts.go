// Package elevenlabs streams synthesized speech from the ElevenLabs API and
// plays it through the platform output device.
package elevenlabs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"spritely/internal/ports"
)

const defaultBaseURL = "https://api.elevenlabs.io/v1"

// Config controls the speech synthesis backend.
type Config struct {
	APIKey     string
	APIBaseURL string
	VoiceID    string
	ModelID    string
}

// Synthesizer implements ports.SpeechSynthesizer.
type Synthesizer struct {
	client *resty.Client
	cfg    Config
	player ports.Player
	logger *zap.Logger
}

func NewSynthesizer(cfg Config, player ports.Player, logger *zap.Logger) (*Synthesizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ELEVENLABS_API_KEY is not configured")
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}

	client := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetHeader("xi-api-key", cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Synthesizer{client: client, cfg: cfg, player: player, logger: logger}, nil
}

// Speak streams the synthesized audio straight into the player and blocks
// until playback completes.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"text":     text,
			"model_id": s.cfg.ModelID,
			"voice_settings": map[string]float64{
				"stability":        0.5,
				"similarity_boost": 0.8,
			},
		}).
		SetDoNotParseResponse(true).
		Post(fmt.Sprintf("/text-to-speech/%s/stream", s.cfg.VoiceID))
	if err != nil {
		return fmt.Errorf("speech synthesis request failed: %w", err)
	}

	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.StatusCode() != 200 {
		return fmt.Errorf("speech synthesis returned status %d", resp.StatusCode())
	}

	s.logger.Debug("playing synthesized speech", zap.Int("textLength", len(text)))
	return s.player.Play(ctx, body)
}
