package main

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"spritely/internal/bootstrap"
	"spritely/internal/config"
	"spritely/internal/domain"
	"spritely/internal/logging"
	"spritely/internal/usecase"
)

const (
	eventSession  = "spritely:session"
	eventFragment = "spritely:fragment"
	eventResponse = "spritely:response"
	eventError    = "spritely:error"
)

// App is the Wails application root. It implements ports.EventSink so the
// controllers can emit to the frontend without knowing about Wails.
type App struct {
	ctx context.Context

	services *bootstrap.Container
	logger   *zap.Logger
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load()
	if err != nil {
		a.bootFailed(err)
		return
	}

	logger, err := logging.New(logging.Config{
		Path:    cfg.Logging.Path,
		Debug:   cfg.Logging.Debug,
		Console: cfg.Logging.Console,
	})
	if err != nil {
		a.bootFailed(err)
		return
	}
	a.logger = logger

	services, err := bootstrap.Build(cfg, logger, a)
	if err != nil {
		a.bootFailed(err)
		return
	}

	a.services = services
	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.services != nil {
		_ = a.services.Assistant.Stop(context.Background())
		_ = a.services.Dictation.Stop(context.Background())
		_ = a.services.Meeting.Stop(context.Background())
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// StartAssistant begins a voice assistant session.
func (a *App) StartAssistant() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.startSession(a.services.Assistant)
}

// StopAssistant stops recording, assembles the transcript, and dispatches
// the response.
func (a *App) StopAssistant() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.stopSession(a.services.Assistant)
}

// StartDictation begins a field dictation session: each final fragment is
// pasted into the focused field as it arrives.
func (a *App) StartDictation() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.startSession(a.services.Dictation)
}

// StopDictation ends the dictation session.
func (a *App) StopDictation() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.stopSession(a.services.Dictation)
}

// StartMeeting begins a diarized meeting recording.
func (a *App) StartMeeting() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.startSession(a.services.Meeting)
}

// StopMeeting ends the recording and saves the annotated transcript.
func (a *App) StopMeeting() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.stopSession(a.services.Meeting)
}

// GetStatus returns the assistant session status.
func (a *App) GetStatus() domain.Status {
	if a.services == nil {
		msg := ""
		if a.bootErr != nil {
			msg = a.bootErr.Error()
		}
		return domain.Status{State: domain.SessionStateIdle, Active: false, Message: msg}
	}
	return a.services.Assistant.Status()
}

// ListMicrophones enumerates capture devices for the settings panel.
func (a *App) ListMicrophones() ([]domain.InputDevice, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Audio.Devices()
}

// SelectMicrophone persists the preferred capture device. A nil-equivalent
// index of -1 restores the system default.
func (a *App) SelectMicrophone(index int) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	var pref *int
	if index >= 0 {
		pref = &index
	}
	if err := a.services.Settings.SetMicrophoneIndex(pref); err != nil {
		a.SessionError(domain.ErrorCodeStartup, "microphone preference could not be saved")
		return err
	}
	return nil
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	cfg := a.services.Config
	return map[string]string{
		"transcription": "Deepgram",
		"model":         cfg.Deepgram.Model,
		"language":      cfg.Deepgram.Language,
		"detector":      cfg.Groq.Model,
		"completion":    cfg.Anthropic.Model,
		"voice":         cfg.ElevenLabs.VoiceID,
	}
}

// sessionControl is the shared surface of the three session controllers.
type sessionControl interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() domain.Status
}

func (a *App) startSession(c sessionControl) (domain.Status, error) {
	if err := c.Start(a.ctx); err != nil {
		return domain.Status{}, err
	}
	return c.Status(), nil
}

func (a *App) stopSession(c sessionControl) (domain.Status, error) {
	err := c.Stop(a.ctx)
	return c.Status(), err
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) bootFailed(err error) {
	a.bootErr = err
	a.SessionError(domain.ErrorCodeStartup, err.Error())
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// TranscriptFragment emits each finalized transcript fragment.
func (a *App) TranscriptFragment(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventFragment, map[string]string{"text": text})
}

// ResponseDispatched emits the routed response once dispatch completes.
func (a *App) ResponseDispatched(response domain.ClassifiedResponse) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventResponse, response)
}

// SessionError emits backend errors to the UI and raises a desktop
// notification, since the window is usually in the background while talking.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, eventError, map[string]string{
			"code":    string(code),
			"message": errorMessage(code, detail),
			"detail":  detail,
		})
	}
	if code != domain.ErrorCodeOverflow {
		_ = beeep.Notify("Spritely", errorMessage(code, detail), "")
	}
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Ready"
	case domain.SessionReasonRecordingStarted:
		return "Recording"
	case domain.SessionReasonFinalizing:
		return "Recording stopped. Thinking..."
	case domain.SessionReasonResponseDispatched:
		return "Response delivered"
	case domain.SessionReasonNoTranscript:
		return "No transcript captured"
	case domain.SessionReasonFinalizeFailed:
		return "Response failed"
	case domain.SessionReasonStartFailed:
		return "Could not start recording"
	case domain.SessionReasonMeetingSaved:
		return "Meeting transcript saved"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeDevice:
		return "Microphone unavailable"
	case domain.ErrorCodeOverflow:
		return "Audio input overflow"
	case domain.ErrorCodeConnection:
		return "Transcription service unreachable"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeClassify:
		return "Response routing failed"
	case domain.ErrorCodeCompletion:
		return "Response generation failed"
	case domain.ErrorCodeClipboard:
		return "Clipboard write failed"
	case domain.ErrorCodePaste:
		return "Paste failed"
	case domain.ErrorCodeSpeech:
		return "Speech playback failed"
	case domain.ErrorCodePersistence:
		return "Transcript save failed"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

var (
	_ sessionControl = (*usecase.SessionController)(nil)
	_ sessionControl = (*usecase.DictationController)(nil)
	_ sessionControl = (*usecase.MeetingRecorder)(nil)
)
