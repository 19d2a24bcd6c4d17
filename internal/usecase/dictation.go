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

// DictationController is the field-entry variant of the session lifecycle.
// Instead of collecting the whole transcript and classifying it on stop, each
// final fragment is pasted into the focused field as it arrives. No language
// model is involved.
type DictationController struct {
	audio         ports.AudioSource
	transcription ports.TranscriptionProvider
	router        *ResponseRouter
	events        ports.EventSink
	logger        *zap.Logger
	cfg           ControllerConfig

	mu      sync.Mutex
	state   domain.SessionState
	session *activeSession
}

func NewDictationController(
	audio ports.AudioSource,
	transcription ports.TranscriptionProvider,
	router *ResponseRouter,
	events ports.EventSink,
	logger *zap.Logger,
	cfg ControllerConfig,
) *DictationController {
	return &DictationController{
		audio:         audio,
		transcription: transcription,
		router:        router,
		events:        events,
		logger:        logger,
		cfg:           cfg,
		state:         domain.SessionStateIdle,
	}
}

// Start mirrors SessionController.Start but wires fragments straight to the
// field channel.
func (c *DictationController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.SessionStateIdle {
		c.logger.Info("dictation start ignored; session already live", zap.String("state", string(c.state)))
		return nil
	}
	c.setStateLocked(domain.SessionStateStarting, domain.SessionReasonRecordingStarted)

	id := uuid.NewString()

	stream, err := c.transcription.StartStreaming(ctx, c.cfg.Streaming)
	if err != nil {
		c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonStartFailed)
		c.events.SessionError(domain.ErrorCodeConnection, "transcription service connection failed")
		return err
	}

	audio, err := c.audio.Open(ctx, c.cfg.Audio)
	if err != nil {
		_ = stream.Close()
		c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonStartFailed)
		c.events.SessionError(domain.ErrorCodeDevice, "audio capture device unavailable")
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

	go pumpAudioFrames(s, c.events, c.logger)
	go consumeTranscriptEvents(s, func(ev domain.TranscriptEvent) {
		c.onTranscriptEvent(ctx, s, ev)
	})

	c.session = s
	c.setStateLocked(domain.SessionStateActive, domain.SessionReasonRecordingStarted)
	c.logger.Info("dictation started", zap.String("session", id))
	return nil
}

// Stop releases the session. Fragments were already pasted in flight, so
// there is nothing to finalize.
func (c *DictationController) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.SessionStateActive {
		c.logger.Info("dictation stop ignored; no live session", zap.String("state", string(c.state)))
		c.mu.Unlock()
		return nil
	}
	s := c.session
	c.session = nil
	c.setStateLocked(domain.SessionStateStopping, domain.SessionReasonFinalizing)
	c.mu.Unlock()

	s.stopping.Store(true)
	_ = s.audio.Close()
	<-s.audioDone

	if err := s.stream.CloseSend(); err != nil {
		c.logger.Warn("transcription stream close signal failed", zap.Error(err))
	}
	<-s.eventsDone
	_ = s.stream.Close()

	// Let any fragments still queued on the bridge paste before teardown.
	s.bridge.call(func() {})
	s.bridge.stop()

	c.mu.Lock()
	c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonReady)
	c.mu.Unlock()

	c.logger.Info("dictation stopped", zap.String("session", s.id),
		zap.Duration("elapsed", time.Since(s.startedAt)))
	return nil
}

func (c *DictationController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Status{
		State:  c.state,
		Active: c.state == domain.SessionStateActive,
	}
}

// onTranscriptEvent pastes each final fragment immediately. A dispatch
// failure costs that fragment only; the session keeps running.
func (c *DictationController) onTranscriptEvent(ctx context.Context, s *activeSession, ev domain.TranscriptEvent) {
	if !ev.IsFinal || ev.Text == "" {
		return
	}
	c.events.TranscriptFragment(ev.Text)
	response := domain.ClassifiedResponse{Text: ev.Text, Channel: domain.ChannelField}
	if err := c.router.Dispatch(ctx, response); err != nil {
		c.logger.Warn("dictation fragment dropped", zap.String("session", s.id), zap.Error(err))
		c.events.SessionError(domain.ErrorCodeClipboard, "dictation fragment could not be pasted")
		return
	}
	c.events.ResponseDispatched(response)
}

func (c *DictationController) setStateLocked(state domain.SessionState, reason domain.SessionStateReason) {
	c.state = state
	c.events.SessionStateChanged(state, reason)
}
