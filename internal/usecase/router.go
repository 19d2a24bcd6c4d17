package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"spritely/internal/domain"
	"spritely/internal/ports"
	"spritely/internal/prompts"
)

// Sentinels distinguishing which finalize step failed.
var (
	ErrClassification = errors.New("classification failed")
	ErrCompletion     = errors.New("completion failed")
	ErrDispatch       = errors.New("dispatch failed")
)

// DispatchError records which output channel the dispatch failed on, so the
// surfaced error code points at the side effect that actually broke.
type DispatchError struct {
	Channel domain.Channel
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed on %s: %v", e.Channel, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDispatch) keep working for callers that only
// care which pipeline step failed.
func (e *DispatchError) Is(target error) bool { return target == ErrDispatch }

// RouterConfig controls dispatch side effects.
type RouterConfig struct {
	// AutoPaste additionally simulates a paste keystroke after a clipboard
	// dispatch.
	AutoPaste bool
	// PasteDelay is the wait between clipboard write and simulated paste,
	// allowing clipboard propagation.
	PasteDelay time.Duration
}

// ResponseRouter classifies an assembled transcript, obtains the completed
// answer, and dispatches it to one of the four output channels.
type ResponseRouter struct {
	classifier ports.Classifier
	completer  ports.Completer
	speech     ports.SpeechSynthesizer
	clipboard  ports.Clipboard
	paster     ports.Paster
	memory     *ConversationMemory
	events     ports.EventSink
	logger     *zap.Logger
	cfg        RouterConfig
}

func NewResponseRouter(
	classifier ports.Classifier,
	completer ports.Completer,
	speech ports.SpeechSynthesizer,
	clipboard ports.Clipboard,
	paster ports.Paster,
	memory *ConversationMemory,
	events ports.EventSink,
	logger *zap.Logger,
	cfg RouterConfig,
) *ResponseRouter {
	if cfg.PasteDelay <= 0 {
		cfg.PasteDelay = 100 * time.Millisecond
	}
	return &ResponseRouter{
		classifier: classifier,
		completer:  completer,
		speech:     speech,
		clipboard:  clipboard,
		paster:     paster,
		memory:     memory,
		events:     events,
		logger:     logger,
		cfg:        cfg,
	}
}

// Respond runs the classify → complete → dispatch sequence for one
// transcript. It is called on the bridge context at session stop.
func (r *ResponseRouter) Respond(ctx context.Context, transcript string) (domain.ClassifiedResponse, error) {
	prompt := r.buildPrompt(transcript)

	channel, lowConfidence, err := r.classifier.Classify(ctx, prompt)
	if err != nil {
		return domain.ClassifiedResponse{}, fmt.Errorf("%w: %w", ErrClassification, err)
	}
	if lowConfidence {
		r.logger.Warn("classifier output matched no keyword; defaulting to clipboard")
	}

	response := domain.ClassifiedResponse{Channel: channel, LowConfidence: lowConfidence}

	switch channel {
	case domain.ChannelSpeak:
		text, err := r.completer.Complete(ctx, prompt, prompts.Speak)
		if err != nil {
			return response, fmt.Errorf("%w: %w", ErrCompletion, err)
		}
		if err := r.Dispatch(ctx, domain.ClassifiedResponse{Text: text, Channel: domain.ChannelSpeak}); err != nil {
			return response, err
		}
		// Speech is played directly; the response carries no text.
		r.remember(transcript, "", channel)

	case domain.ChannelClipboard, domain.ChannelStore:
		text, err := r.completer.Complete(ctx, prompt, prompts.Clipboard)
		if err != nil {
			return response, fmt.Errorf("%w: %w", ErrCompletion, err)
		}
		response.Text = text
		if err := r.Dispatch(ctx, response); err != nil {
			return response, err
		}
		r.remember(transcript, text, channel)

	default:
		return response, fmt.Errorf("%w: unexpected channel %q", ErrClassification, channel)
	}

	return response, nil
}

// Dispatch applies the terminal side effect for a classified response. It is
// also used directly by the dictation variant, which skips classification
// and always routes to the field channel.
func (r *ResponseRouter) Dispatch(ctx context.Context, response domain.ClassifiedResponse) error {
	switch response.Channel {
	case domain.ChannelSpeak:
		if err := r.speech.Speak(ctx, response.Text); err != nil {
			return &DispatchError{Channel: domain.ChannelSpeak, Err: err}
		}
		return nil

	case domain.ChannelClipboard:
		if err := r.clipboard.WriteText(response.Text); err != nil {
			return &DispatchError{Channel: domain.ChannelClipboard, Err: fmt.Errorf("clipboard write: %w", err)}
		}
		r.playClipboardCue(ctx)
		if r.cfg.AutoPaste {
			r.pasteAfterDelay(ctx)
		}
		return nil

	case domain.ChannelStore:
		// Memory-only retention: no externally visible effect.
		return nil

	case domain.ChannelField:
		if err := r.clipboard.WriteText(response.Text); err != nil {
			return &DispatchError{Channel: domain.ChannelField, Err: fmt.Errorf("clipboard write: %w", err)}
		}
		r.pasteAfterDelay(ctx)
		return nil
	}
	return fmt.Errorf("%w: unknown channel %q", ErrDispatch, response.Channel)
}

// buildPrompt wraps the transcript with remembered conversation history.
func (r *ResponseRouter) buildPrompt(transcript string) string {
	if r.memory == nil {
		return transcript
	}
	history := r.memory.Context()
	if history == "" {
		return transcript
	}
	return fmt.Sprintf(`<conversation_history>
%s
</conversation_history>

<current_request>
%s
</current_request>`, history, transcript)
}

func (r *ResponseRouter) remember(userInput string, response string, channel domain.Channel) {
	if r.memory != nil {
		r.memory.AddExchange(userInput, response, channel)
	}
}

// playClipboardCue speaks the short confirmation after a clipboard write.
// Failure is tolerated: the clipboard already holds the answer.
func (r *ResponseRouter) playClipboardCue(ctx context.Context) {
	if r.speech == nil {
		return
	}
	if err := r.speech.Speak(ctx, prompts.ClipboardCue); err != nil {
		r.logger.Warn("clipboard confirmation audio failed", zap.Error(err))
		r.events.SessionError(domain.ErrorCodeSpeech, "clipboard confirmation audio failed")
	}
}

// pasteAfterDelay waits for clipboard propagation, then dispatches the paste
// keystroke. Paste failure leaves the clipboard set, so it is logged rather
// than escalated.
func (r *ResponseRouter) pasteAfterDelay(ctx context.Context) {
	if r.paster == nil {
		return
	}
	select {
	case <-time.After(r.cfg.PasteDelay):
	case <-ctx.Done():
		return
	}
	if err := r.paster.Paste(ctx); err != nil {
		r.logger.Warn("paste dispatch failed; clipboard remains set", zap.Error(err))
		r.events.SessionError(domain.ErrorCodePaste, "paste dispatch failed; clipboard remains set")
	}
}
