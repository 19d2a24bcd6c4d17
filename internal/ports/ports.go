package ports

import (
	"context"
	"errors"
	"io"

	"spritely/internal/domain"
)

// ErrOverflow reports a dropped capture frame. The read loop logs it and
// keeps reading; every other capture error is fatal to the session.
var ErrOverflow = errors.New("audio input buffer overflowed")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate int
	Channels   int
	// FrameSize is samples per channel per read.
	FrameSize int
	// DeviceIndex selects an explicit input device; nil means the system
	// default. Resolved once at Open.
	DeviceIndex *int
}

// AudioStream is a live exclusive capture handle.
type AudioStream interface {
	// ReadFrame blocks for at most one frame duration. It returns
	// ErrOverflow when the host buffer overflowed (non-fatal).
	ReadFrame() (domain.AudioFrame, error)
	Close() error
}

// AudioSource opens microphone capture streams and enumerates devices.
type AudioSource interface {
	Open(ctx context.Context, cfg AudioConfig) (AudioStream, error)
	Devices() ([]domain.InputDevice, error)
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	Language       string
	Punctuate      bool
	InterimResults bool
	Diarize        bool
}

// StreamingSession is an active provider websocket session. Events are
// delivered from the session's own reader goroutine; the channel closes once
// the backend hangs up.
type StreamingSession interface {
	SendAudio(frame domain.AudioFrame) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Close() error
}

// TranscriptionProvider starts streaming transcription sessions.
type TranscriptionProvider interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// Classifier decides which output channel a transcript should be routed to.
// lowConfidence is set when the raw classifier output matched no keyword and
// the clipboard default was applied.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (channel domain.Channel, lowConfidence bool, err error)
}

// Completer produces the final answer text for an assembled transcript using
// a channel-specific system prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, systemPrompt string) (string, error)
}

// SpeechSynthesizer converts text to audio and plays it. Speak blocks until
// playback completes.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Clipboard is the process-wide clipboard resource. Writes are
// last-writer-wins.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Paster dispatches a synthetic paste key combination to the focused
// application. Success is not verified.
type Paster interface {
	Paste(ctx context.Context) error
}

// Player plays an audio byte stream through the platform output device.
type Player interface {
	Play(ctx context.Context, audio io.Reader) error
}

// MeetingStore persists a finished meeting transcript and returns the path
// it was written to.
type MeetingStore interface {
	Save(entries []domain.MeetingEntry) (string, error)
}

// SettingsStore holds user preferences across restarts.
type SettingsStore interface {
	MicrophoneIndex() *int
	SetMicrophoneIndex(index *int) error
}

// EventSink emits backend state and events to the UI.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	TranscriptFragment(text string)
	ResponseDispatched(response domain.ClassifiedResponse)
	SessionError(code domain.ErrorCode, detail string)
}
