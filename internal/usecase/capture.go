package usecase

import (
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"spritely/internal/domain"
	"spritely/internal/ports"
)

// activeSession bundles the resources acquired by a successful start. The
// controller swaps it in atomically under its own mutex; the pump goroutines
// hold their own reference so teardown ordering stays explicit.
type activeSession struct {
	id        string
	startedAt time.Time

	audio  ports.AudioStream
	stream ports.StreamingSession

	bridge *eventBridge

	// collector is set by the assistant session only; the dictation and
	// meeting variants dispatch fragments as they arrive.
	collector *TranscriptCollector

	// stopping flips before the audio stream is closed so the pump can tell a
	// deliberate shutdown from a device failure.
	stopping atomic.Bool

	audioDone  chan struct{}
	eventsDone chan struct{}
}

// pumpAudioFrames reads frames from the capture device and forwards them to
// the streaming session until the device closes or a fatal error occurs.
// Overflow is transient on a busy host: the dropped frame costs a sliver of
// audio, not the session.
func pumpAudioFrames(s *activeSession, sink ports.EventSink, logger *zap.Logger) {
	defer close(s.audioDone)
	for {
		frame, err := s.audio.ReadFrame()
		if err != nil {
			if errors.Is(err, ports.ErrOverflow) {
				logger.Warn("audio input overflow; frame dropped", zap.String("session", s.id))
				sink.SessionError(domain.ErrorCodeOverflow, "audio input overflow; frame dropped")
				continue
			}
			if s.stopping.Load() {
				return
			}
			logger.Error("audio device read failed", zap.String("session", s.id), zap.Error(err))
			sink.SessionError(domain.ErrorCodeDevice, "audio device read failed")
			return
		}
		if len(frame) == 0 {
			continue
		}
		if err := s.stream.SendAudio(frame); err != nil {
			if s.stopping.Load() {
				return
			}
			logger.Error("audio upload failed", zap.String("session", s.id), zap.Error(err))
			sink.SessionError(domain.ErrorCodeAudioStream, "audio upload to transcription service failed")
			return
		}
	}
}

// consumeTranscriptEvents forwards transcription events onto the bridge until
// the provider closes its event channel. onEvent runs on the bridge, so
// handlers touch collector and memory without further locking.
func consumeTranscriptEvents(s *activeSession, onEvent func(domain.TranscriptEvent)) {
	defer close(s.eventsDone)
	for event := range s.stream.Events() {
		ev := event
		s.bridge.schedule(func() { onEvent(ev) })
	}
}
