package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spritely/internal/domain"
	"spritely/internal/ports"
)

// ControllerConfig carries the per-session knobs the controller needs at
// start time.
type ControllerConfig struct {
	Audio     ports.AudioConfig
	Streaming ports.StreamingConfig
	// SeedClipboard prepends the current clipboard contents to the transcript
	// so the request can refer to it.
	SeedClipboard bool
}

// SessionController drives one voice session through its lifecycle: acquire
// the capture device and a live transcription stream, collect final
// fragments, and on stop assemble the transcript and route the response.
//
// Start and Stop are idempotent. Calling Start while a session is live, or
// Stop while none is, logs and returns nil.
type SessionController struct {
	audio         ports.AudioSource
	transcription ports.TranscriptionProvider
	clipboard     ports.Clipboard
	router        *ResponseRouter
	events        ports.EventSink
	logger        *zap.Logger
	cfg           ControllerConfig

	mu      sync.Mutex
	state   domain.SessionState
	session *activeSession
}

func NewSessionController(
	audio ports.AudioSource,
	transcription ports.TranscriptionProvider,
	clipboard ports.Clipboard,
	router *ResponseRouter,
	events ports.EventSink,
	logger *zap.Logger,
	cfg ControllerConfig,
) *SessionController {
	return &SessionController{
		audio:         audio,
		transcription: transcription,
		clipboard:     clipboard,
		router:        router,
		events:        events,
		logger:        logger,
		cfg:           cfg,
		state:         domain.SessionStateIdle,
	}
}

// Start acquires the transcription stream and the capture device, in that
// order, and begins pumping audio. On any acquisition failure the resources
// already held are released and the controller returns to idle.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.SessionStateIdle {
		c.logger.Info("start ignored; session already live", zap.String("state", string(c.state)))
		return nil
	}
	c.setStateLocked(domain.SessionStateStarting, domain.SessionReasonRecordingStarted)

	id := uuid.NewString()

	stream, err := c.transcription.StartStreaming(ctx, c.cfg.Streaming)
	if err != nil {
		c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonStartFailed)
		c.events.SessionError(domain.ErrorCodeConnection, "transcription service connection failed")
		return fmt.Errorf("start transcription stream: %w", err)
	}

	audio, err := c.audio.Open(ctx, c.cfg.Audio)
	if err != nil {
		_ = stream.Close()
		c.setStateLocked(domain.SessionStateIdle, domain.SessionReasonStartFailed)
		c.events.SessionError(domain.ErrorCodeDevice, "audio capture device unavailable")
		return fmt.Errorf("open audio device: %w", err)
	}

	s := &activeSession{
		id:         id,
		startedAt:  time.Now(),
		audio:      audio,
		stream:     stream,
		bridge:     newEventBridge(),
		collector:  NewTranscriptCollector(),
		audioDone:  make(chan struct{}),
		eventsDone: make(chan struct{}),
	}

	if c.cfg.SeedClipboard && c.clipboard != nil {
		if text, err := c.clipboard.ReadText(); err == nil {
			s.collector.Seed(text)
		} else {
			c.logger.Warn("clipboard seed skipped", zap.Error(err))
		}
	}

	go pumpAudioFrames(s, c.events, c.logger)
	go consumeTranscriptEvents(s, func(ev domain.TranscriptEvent) {
		c.onTranscriptEvent(s, ev)
	})

	c.session = s
	c.setStateLocked(domain.SessionStateActive, domain.SessionReasonRecordingStarted)
	c.logger.Info("session started", zap.String("session", id))
	return nil
}

// Stop tears the session down in the reverse of acquisition order, then
// finalizes the collected transcript on the bridge. The controller always
// returns to idle, whether or not finalize succeeds.
func (c *SessionController) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.SessionStateActive {
		c.logger.Info("stop ignored; no live session", zap.String("state", string(c.state)))
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

	var (
		finalizeErr error
		hadText     bool
	)
	s.bridge.call(func() {
		hadText, finalizeErr = c.finalize(ctx, s)
	})
	s.bridge.stop()
	s.collector.Reset()

	reason := domain.SessionReasonResponseDispatched
	switch {
	case finalizeErr != nil:
		reason = domain.SessionReasonFinalizeFailed
	case !hadText:
		reason = domain.SessionReasonNoTranscript
	}

	c.mu.Lock()
	c.setStateLocked(domain.SessionStateIdle, reason)
	c.mu.Unlock()

	if finalizeErr != nil {
		c.events.SessionError(errorCodeFor(finalizeErr), finalizeErr.Error())
		c.logger.Error("session finalize failed", zap.String("session", s.id), zap.Error(finalizeErr))
		return finalizeErr
	}
	c.logger.Info("session stopped", zap.String("session", s.id),
		zap.Duration("elapsed", time.Since(s.startedAt)))
	return nil
}

// Status reports the current lifecycle state.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Status{
		State:  c.state,
		Active: c.state == domain.SessionStateActive,
	}
}

func (c *SessionController) onTranscriptEvent(s *activeSession, ev domain.TranscriptEvent) {
	if !ev.IsFinal {
		return
	}
	s.collector.Append(ev.Text)
	c.events.TranscriptFragment(ev.Text)
}

// finalize runs on the bridge after all pumps have drained. The bool reports
// whether any transcript text was captured.
func (c *SessionController) finalize(ctx context.Context, s *activeSession) (bool, error) {
	transcript := s.collector.Assemble()
	if transcript == "" {
		c.logger.Info("no transcript captured; skipping response", zap.String("session", s.id))
		return false, nil
	}
	response, err := c.router.Respond(ctx, transcript)
	if err != nil {
		return true, err
	}
	c.events.ResponseDispatched(response)
	return true, nil
}

func (c *SessionController) setStateLocked(state domain.SessionState, reason domain.SessionStateReason) {
	c.state = state
	c.events.SessionStateChanged(state, reason)
}

// errorCodeFor maps a finalize failure to the error code surfaced to the UI.
// Dispatch failures report the channel they happened on: a failed spoken
// response is a speech problem, not a clipboard one.
func errorCodeFor(err error) domain.ErrorCode {
	var dispatch *DispatchError
	switch {
	case errors.As(err, &dispatch):
		if dispatch.Channel == domain.ChannelSpeak {
			return domain.ErrorCodeSpeech
		}
		return domain.ErrorCodeClipboard
	case errors.Is(err, ErrClassification):
		return domain.ErrorCodeClassify
	case errors.Is(err, ErrCompletion):
		return domain.ErrorCodeCompletion
	case errors.Is(err, ErrDispatch):
		return domain.ErrorCodeClipboard
	default:
		return domain.ErrorCodeClassify
	}
}
