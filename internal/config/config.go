package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the assistant.
type Config struct {
	Deepgram   DeepgramConfig
	Groq       GroqConfig
	Anthropic  AnthropicConfig
	ElevenLabs ElevenLabsConfig
	Audio      AudioConfig
	Session    SessionConfig
	Meeting    MeetingConfig
	Logging    LoggingConfig
	Settings   SettingsConfig
}

type DeepgramConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
	Punctuate  bool
}

type GroqConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
}

type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type ElevenLabsConfig struct {
	APIKey        string
	VoiceID       string
	ModelID       string
	PlayerCommand string
}

type AudioConfig struct {
	SampleRate int
	Channels   int
	FrameSize  int
}

type SessionConfig struct {
	// AutoPaste additionally simulates a paste keystroke after a clipboard
	// dispatch (the hands-free variant).
	AutoPaste bool
	// PasteDelay is the wait between the clipboard write and the simulated
	// paste, allowing clipboard propagation.
	PasteDelay time.Duration
	// SeedClipboard prepends a tagged snapshot of the clipboard to the
	// transcript so the completion can reference copied material.
	SeedClipboard bool
	// MemorySize caps the number of remembered conversation exchanges.
	MemorySize int
}

type MeetingConfig struct {
	Dir string
}

type LoggingConfig struct {
	Path    string
	Debug   bool
	Console bool
}

type SettingsConfig struct {
	Path string
}

// Load reads .env when present and resolves configuration from environment
// variables and defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:     strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL: envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:      envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:   envOrDefault("DEEPGRAM_LANGUAGE", "en-GB"),
			Punctuate:  envOrDefaultBool("DEEPGRAM_PUNCTUATE", true),
		},
		Groq: GroqConfig{
			APIKey:     strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
			APIBaseURL: envOrDefault("GROQ_API_BASE", "https://api.groq.com/openai/v1"),
			Model:      envOrDefault("GROQ_MODEL", "llama3-70b-8192"),
		},
		Anthropic: AnthropicConfig{
			APIKey:      strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
			Model:       envOrDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			MaxTokens:   envOrDefaultInt("ANTHROPIC_MAX_TOKENS", 1024),
			Temperature: envOrDefaultFloat("ANTHROPIC_TEMPERATURE", 0.4),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:        strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
			VoiceID:       envOrDefault("ELEVENLABS_VOICE_ID", "OOjDveYEA7KnRY2FRSmX"),
			ModelID:       envOrDefault("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
			PlayerCommand: envOrDefault("SPRITELY_PLAYER_COMMAND", "ffplay"),
		},
		Audio: AudioConfig{
			SampleRate: envOrDefaultInt("SPRITELY_SAMPLE_RATE", 44100),
			Channels:   envOrDefaultInt("SPRITELY_CHANNELS", 1),
			FrameSize:  envOrDefaultInt("SPRITELY_FRAME_SIZE", 1024),
		},
		Session: SessionConfig{
			AutoPaste:     envOrDefaultBool("SPRITELY_AUTO_PASTE", true),
			PasteDelay:    time.Duration(envOrDefaultInt("SPRITELY_PASTE_DELAY_MS", 100)) * time.Millisecond,
			SeedClipboard: envOrDefaultBool("SPRITELY_SEED_CLIPBOARD", false),
			MemorySize:    envOrDefaultInt("SPRITELY_MEMORY_SIZE", 10),
		},
		Meeting: MeetingConfig{
			Dir: envOrDefault("SPRITELY_MEETING_DIR", filepath.Join(home, "meetings", "transcripts")),
		},
		Logging: LoggingConfig{
			Path:    strings.TrimSpace(os.Getenv("SPRITELY_LOG_FILE")),
			Debug:   envOrDefaultBool("SPRITELY_DEBUG", false),
			Console: envOrDefaultBool("SPRITELY_LOG_CONSOLE", false),
		},
		Settings: SettingsConfig{
			Path: envOrDefault("SPRITELY_SETTINGS_FILE", filepath.Join(home, ".config", "spritely", "settings.json")),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 44100
	}
	if cfg.Audio.Channels <= 0 || cfg.Audio.Channels > 2 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.FrameSize < 256 {
		cfg.Audio.FrameSize = 1024
	}
	if cfg.Session.MemorySize <= 0 {
		cfg.Session.MemorySize = 10
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
