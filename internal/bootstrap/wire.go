package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"spritely/internal/audio"
	"spritely/internal/config"
	"spritely/internal/domain"
	"spritely/internal/meeting"
	"spritely/internal/output"
	"spritely/internal/ports"
	"spritely/internal/providers/anthropic"
	"spritely/internal/providers/deepgram"
	"spritely/internal/providers/elevenlabs"
	"spritely/internal/providers/groq"
	"spritely/internal/settings"
	"spritely/internal/usecase"
)

// Container holds the wired application graph.
type Container struct {
	Config   config.Config
	Logger   *zap.Logger
	Settings ports.SettingsStore

	Audio ports.AudioSource

	Assistant *usecase.SessionController
	Dictation *usecase.DictationController
	Meeting   *usecase.MeetingRecorder
}

// Build resolves configuration into the full dependency graph. The event
// sink is supplied by the binding layer so controllers stay UI-agnostic.
func Build(cfg config.Config, logger *zap.Logger, sink ports.EventSink) (*Container, error) {
	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}

	capture := audio.NewCapture(logger)
	source := &preferredDeviceSource{inner: capture, settings: store}

	transcription := deepgram.NewProvider(deepgram.Config{
		APIKey:     cfg.Deepgram.APIKey,
		APIBaseURL: cfg.Deepgram.APIBaseURL,
		Model:      cfg.Deepgram.Model,
	})

	classifier, err := groq.NewClassifier(groq.Config{
		APIKey:     cfg.Groq.APIKey,
		APIBaseURL: cfg.Groq.APIBaseURL,
		Model:      cfg.Groq.Model,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	completer, err := anthropic.NewCompleter(anthropic.Config{
		APIKey:      cfg.Anthropic.APIKey,
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		Temperature: cfg.Anthropic.Temperature,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build completer: %w", err)
	}

	player := audio.NewExecPlayer(cfg.ElevenLabs.PlayerCommand)
	speech, err := elevenlabs.NewSynthesizer(elevenlabs.Config{
		APIKey:  cfg.ElevenLabs.APIKey,
		VoiceID: cfg.ElevenLabs.VoiceID,
		ModelID: cfg.ElevenLabs.ModelID,
	}, player, logger)
	if err != nil {
		return nil, fmt.Errorf("build speech synthesizer: %w", err)
	}

	clipboard := output.NewSystemClipboard()
	paster := output.NewKeyPaster()
	memory := usecase.NewConversationMemory(cfg.Session.MemorySize)

	router := usecase.NewResponseRouter(
		classifier, completer, speech, clipboard, paster, memory, sink, logger,
		usecase.RouterConfig{
			AutoPaste:  cfg.Session.AutoPaste,
			PasteDelay: cfg.Session.PasteDelay,
		},
	)

	audioCfg := ports.AudioConfig{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		FrameSize:  cfg.Audio.FrameSize,
	}
	streamingCfg := ports.StreamingConfig{
		SampleRate:     cfg.Audio.SampleRate,
		Channels:       cfg.Audio.Channels,
		Encoding:       "linear16",
		Language:       cfg.Deepgram.Language,
		Punctuate:      cfg.Deepgram.Punctuate,
		InterimResults: false,
	}

	assistant := usecase.NewSessionController(
		source, transcription, clipboard, router, sink, logger,
		usecase.ControllerConfig{
			Audio:         audioCfg,
			Streaming:     streamingCfg,
			SeedClipboard: cfg.Session.SeedClipboard,
		},
	)

	dictation := usecase.NewDictationController(
		source, transcription, router, sink, logger,
		usecase.ControllerConfig{Audio: audioCfg, Streaming: streamingCfg},
	)

	meetingCfg := usecase.ControllerConfig{Audio: audioCfg, Streaming: streamingCfg}
	meetingCfg.Audio.Channels = 2
	meetingCfg.Streaming.Channels = 2
	recorder := usecase.NewMeetingRecorder(
		source, transcription, meeting.NewFileStore(cfg.Meeting.Dir), sink, logger, meetingCfg,
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Settings:  store,
		Audio:     source,
		Assistant: assistant,
		Dictation: dictation,
		Meeting:   recorder,
	}, nil
}

// preferredDeviceSource injects the persisted microphone preference into each
// Open so a selection made in the UI takes effect on the next session without
// rebuilding the graph.
type preferredDeviceSource struct {
	inner    ports.AudioSource
	settings ports.SettingsStore
}

func (s *preferredDeviceSource) Open(ctx context.Context, cfg ports.AudioConfig) (ports.AudioStream, error) {
	if cfg.DeviceIndex == nil {
		cfg.DeviceIndex = s.settings.MicrophoneIndex()
	}
	return s.inner.Open(ctx, cfg)
}

func (s *preferredDeviceSource) Devices() ([]domain.InputDevice, error) {
	return s.inner.Devices()
}
