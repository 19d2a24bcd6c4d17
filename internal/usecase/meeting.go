package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spritely/internal/domain"
	"spritely/internal/ports"
)

// MeetingRecorder captures a long-running diarized transcription session and
// persists the annotated transcript to disk on stop. Unlike the assistant
// session, nothing is classified or routed; the deliverable is the file.
type MeetingRecorder struct {
	audio         ports.AudioSource
	transcription ports.TranscriptionProvider
	store         ports.MeetingStore
	events        ports.EventSink
	logger        *zap.Logger
	cfg           ControllerConfig

	mu      sync.Mutex
	state   domain.SessionState
	session *activeSession
	entries []domain.MeetingEntry
}

func NewMeetingRecorder(
	audio ports.AudioSource,
	transcription ports.TranscriptionProvider,
	store ports.MeetingStore,
	events ports.EventSink,
	logger *zap.Logger,
	cfg ControllerConfig,
) *MeetingRecorder {
	cfg.Streaming.Diarize = true
	return &MeetingRecorder{
		audio:         audio,
		transcription: transcription,
		store:         store,
		events:        events,
		logger:        logger,
		cfg:           cfg,
		state:         domain.SessionStateIdle,
	}
}

// Start opens a diarized stream and begins accumulating entries.
func (m *MeetingRecorder) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.SessionStateIdle {
		m.logger.Info("meeting start ignored; recording already live", zap.String("state", string(m.state)))
		return nil
	}
	m.setStateLocked(domain.SessionStateStarting, domain.SessionReasonRecordingStarted)

	id := uuid.NewString()

	stream, err := m.transcription.StartStreaming(ctx, m.cfg.Streaming)
	if err != nil {
		m.setStateLocked(domain.SessionStateIdle, domain.SessionReasonStartFailed)
		m.events.SessionError(domain.ErrorCodeConnection, "transcription service connection failed")
		return err
	}

	audio, err := m.audio.Open(ctx, m.cfg.Audio)
	if err != nil {
		_ = stream.Close()
		m.setStateLocked(domain.SessionStateIdle, domain.SessionReasonStartFailed)
		m.events.SessionError(domain.ErrorCodeDevice, "audio capture device unavailable")
		return err
	}

	s := &activeSession{
		id:         id,
		startedAt:  time.Now(),
		audio:      audio,
		stream:     stream,
		bridge:     newEventBridge(),
		audioDone:  make(chan struct{}),
		eventsDone: make(chan struct{}),
	}

	m.entries = nil

	go pumpAudioFrames(s, m.events, m.logger)
	go consumeTranscriptEvents(s, func(ev domain.TranscriptEvent) {
		m.onTranscriptEvent(ev)
	})

	m.session = s
	m.setStateLocked(domain.SessionStateActive, domain.SessionReasonRecordingStarted)
	m.logger.Info("meeting recording started", zap.String("session", id))
	return nil
}

// Stop drains the stream and writes the collected entries through the store.
// A persistence failure is reported but still leaves the recorder idle; the
// entries are held in memory until the next Start for manual recovery.
func (m *MeetingRecorder) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.state != domain.SessionStateActive {
		m.logger.Info("meeting stop ignored; no live recording", zap.String("state", string(m.state)))
		m.mu.Unlock()
		return nil
	}
	s := m.session
	m.session = nil
	m.setStateLocked(domain.SessionStateStopping, domain.SessionReasonFinalizing)
	m.mu.Unlock()

	s.stopping.Store(true)
	_ = s.audio.Close()
	<-s.audioDone

	if err := s.stream.CloseSend(); err != nil {
		m.logger.Warn("transcription stream close signal failed", zap.Error(err))
	}
	<-s.eventsDone
	_ = s.stream.Close()

	// Flush entries still queued on the bridge before reading the slice.
	s.bridge.call(func() {})
	s.bridge.stop()

	m.mu.Lock()
	entries := m.entries
	m.mu.Unlock()

	path, saveErr := m.store.Save(entries)

	reason := domain.SessionReasonMeetingSaved
	if saveErr != nil {
		reason = domain.SessionReasonFinalizeFailed
	}

	m.mu.Lock()
	m.setStateLocked(domain.SessionStateIdle, reason)
	m.mu.Unlock()

	if saveErr != nil {
		m.events.SessionError(domain.ErrorCodePersistence, "meeting transcript could not be saved")
		m.logger.Error("meeting transcript save failed",
			zap.String("session", s.id), zap.Int("entries", len(entries)), zap.Error(saveErr))
		return saveErr
	}

	m.logger.Info("meeting recording saved",
		zap.String("session", s.id),
		zap.String("path", path),
		zap.Int("entries", len(entries)),
		zap.Duration("elapsed", time.Since(s.startedAt)))
	return nil
}

func (m *MeetingRecorder) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Status{
		State:  m.state,
		Active: m.state == domain.SessionStateActive,
	}
}

// Entries returns a copy of the accumulated transcript entries. Useful for
// recovery when persistence failed.
func (m *MeetingRecorder) Entries() []domain.MeetingEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MeetingEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// onTranscriptEvent runs on the bridge. The append takes m.mu so Entries can
// be read while a recording is still live.
func (m *MeetingRecorder) onTranscriptEvent(ev domain.TranscriptEvent) {
	if !ev.IsFinal || ev.Text == "" {
		return
	}
	m.mu.Lock()
	m.entries = append(m.entries, domain.MeetingEntry{
		Timestamp:  ev.Timestamp,
		Transcript: ev.Text,
		Confidence: ev.Confidence,
		Speaker:    ev.Speaker,
		Start:      ev.Start,
		Duration:   ev.Duration,
		RequestID:  ev.RequestID,
	})
	m.mu.Unlock()
	m.events.TranscriptFragment(ev.Text)
}

func (m *MeetingRecorder) setStateLocked(state domain.SessionState, reason domain.SessionStateReason) {
	m.state = state
	m.events.SessionStateChanged(state, reason)
}
