package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"spritely/internal/domain"
	"spritely/internal/prompts"
)

type routerFixture struct {
	router     *ResponseRouter
	classifier *fakeClassifier
	completer  *fakeCompleter
	speech     *fakeSpeech
	clipboard  *fakeClipboard
	paster     *fakePaster
	memory     *ConversationMemory
	events     *fakeEventSink
}

func newRouterFixture(cfg RouterConfig) *routerFixture {
	if cfg.PasteDelay == 0 {
		cfg.PasteDelay = time.Millisecond
	}
	f := &routerFixture{
		classifier: &fakeClassifier{channel: domain.ChannelClipboard},
		completer:  &fakeCompleter{text: "answer"},
		speech:     &fakeSpeech{},
		clipboard:  &fakeClipboard{},
		paster:     &fakePaster{},
		memory:     NewConversationMemory(10),
		events:     &fakeEventSink{},
	}
	f.router = NewResponseRouter(
		f.classifier, f.completer, f.speech, f.clipboard, f.paster, f.memory,
		f.events, zap.NewNop(), cfg,
	)
	return f
}

func TestRespondSpeakChannel(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})
	f.classifier.channel = domain.ChannelSpeak
	f.completer.text = "forty-two"

	response, err := f.router.Respond(context.Background(), "what is the answer")
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	if response.Channel != domain.ChannelSpeak {
		t.Fatalf("unexpected channel: %s", response.Channel)
	}
	if spoken := f.speech.texts(); len(spoken) != 1 || spoken[0] != "forty-two" {
		t.Fatalf("unexpected speech: %v", spoken)
	}
	if f.completer.systemPrompts[0] != prompts.Speak {
		t.Fatalf("expected spoken-style system prompt")
	}
	if f.clipboard.lastWrite() != "" {
		t.Fatalf("speak channel must not touch the clipboard")
	}

	// Spoken answers are remembered without the response text.
	if f.memory.Len() != 1 {
		t.Fatalf("expected one remembered exchange")
	}
	if strings.Contains(f.memory.Context(), "forty-two") {
		t.Fatalf("spoken response text should not be remembered")
	}
}

func TestRespondClipboardChannelWithAutoPaste(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{AutoPaste: true})

	response, err := f.router.Respond(context.Background(), "write me a haiku")
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	if response.Channel != domain.ChannelClipboard || response.Text != "answer" {
		t.Fatalf("unexpected response: %+v", response)
	}
	if f.clipboard.lastWrite() != "answer" {
		t.Fatalf("clipboard missing answer: %q", f.clipboard.lastWrite())
	}
	if f.paster.pastes() != 1 {
		t.Fatalf("expected auto paste")
	}
	if spoken := f.speech.texts(); len(spoken) != 1 || spoken[0] != prompts.ClipboardCue {
		t.Fatalf("expected clipboard confirmation audio, got %v", spoken)
	}
	if f.completer.systemPrompts[0] != prompts.Clipboard {
		t.Fatalf("expected written-style system prompt")
	}
}

func TestRespondLowConfidenceFallsBackToClipboard(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})
	f.classifier.lowConfidence = true

	response, err := f.router.Respond(context.Background(), "mumble mumble")
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if response.Channel != domain.ChannelClipboard || !response.LowConfidence {
		t.Fatalf("expected low-confidence clipboard response, got %+v", response)
	}
}

func TestRespondClassifierFailure(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})
	f.classifier.err = errors.New("offline")

	_, err := f.router.Respond(context.Background(), "anything")
	if !errors.Is(err, ErrClassification) {
		t.Fatalf("expected classification sentinel, got %v", err)
	}
	if f.memory.Len() != 0 {
		t.Fatalf("failed turns must not be remembered")
	}
}

func TestRespondCompleterFailure(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})
	f.completer.err = errors.New("rate limited")

	_, err := f.router.Respond(context.Background(), "anything")
	if !errors.Is(err, ErrCompletion) {
		t.Fatalf("expected completion sentinel, got %v", err)
	}
}

func TestRespondIncludesConversationHistory(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})
	f.memory.AddExchange("first question", "first answer", domain.ChannelClipboard)

	if _, err := f.router.Respond(context.Background(), "follow-up"); err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	prompt := f.classifier.prompts[0]
	if !strings.Contains(prompt, "<conversation_history>") {
		t.Fatalf("expected history wrapper, got %q", prompt)
	}
	if !strings.Contains(prompt, "[User]: first question") {
		t.Fatalf("expected prior turn in prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "<current_request>\nfollow-up\n</current_request>") {
		t.Fatalf("expected current request block, got %q", prompt)
	}
}

func TestDispatchFieldChannelPastesWithoutSpeech(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})

	err := f.router.Dispatch(context.Background(), domain.ClassifiedResponse{
		Text:    "dictated words",
		Channel: domain.ChannelField,
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if f.clipboard.lastWrite() != "dictated words" {
		t.Fatalf("clipboard missing dictated text")
	}
	if f.paster.pastes() != 1 {
		t.Fatalf("field channel must paste immediately")
	}
	if len(f.speech.texts()) != 0 {
		t.Fatalf("field channel must stay silent")
	}
}

func TestDispatchStoreChannelHasNoSideEffects(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})

	err := f.router.Dispatch(context.Background(), domain.ClassifiedResponse{
		Text:    "kept for later",
		Channel: domain.ChannelStore,
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if f.clipboard.lastWrite() != "" || f.paster.pastes() != 0 || len(f.speech.texts()) != 0 {
		t.Fatalf("store channel must not touch outputs")
	}
}

func TestDispatchClipboardWriteFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})
	f.clipboard.writeErr = errors.New("clipboard down")

	err := f.router.Dispatch(context.Background(), domain.ClassifiedResponse{
		Text:    "lost",
		Channel: domain.ChannelClipboard,
	})
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("expected dispatch sentinel, got %v", err)
	}
}

func TestDispatchClipboardCueFailureIsTolerated(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})
	f.speech.err = errors.New("tts down")

	err := f.router.Dispatch(context.Background(), domain.ClassifiedResponse{
		Text:    "still delivered",
		Channel: domain.ChannelClipboard,
	})
	if err != nil {
		t.Fatalf("cue failure must not fail dispatch: %v", err)
	}
	if f.clipboard.lastWrite() != "still delivered" {
		t.Fatalf("clipboard should still hold the answer")
	}
	if !f.events.hasError(domain.ErrorCodeSpeech) {
		t.Fatalf("expected speech error event")
	}
}

func TestDispatchPasteFailureIsTolerated(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{AutoPaste: true})
	f.paster.err = errors.New("no accessibility permission")

	err := f.router.Dispatch(context.Background(), domain.ClassifiedResponse{
		Text:    "still on clipboard",
		Channel: domain.ChannelClipboard,
	})
	if err != nil {
		t.Fatalf("paste failure must not fail dispatch: %v", err)
	}
	if !f.events.hasError(domain.ErrorCodePaste) {
		t.Fatalf("expected paste error event")
	}
}

func TestDispatchFailureCarriesChannel(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(RouterConfig{})
	f.classifier.channel = domain.ChannelSpeak
	f.speech.err = errors.New("synthesis backend unreachable")

	_, err := f.router.Respond(context.Background(), "read this to me")
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("expected dispatch error, got %v", err)
	}
	if code := errorCodeFor(err); code != domain.ErrorCodeSpeech {
		t.Fatalf("speak dispatch failure surfaced as %q, want %q", code, domain.ErrorCodeSpeech)
	}

	f = newRouterFixture(RouterConfig{})
	f.clipboard.writeErr = errors.New("clipboard unavailable")
	err = f.router.Dispatch(context.Background(), domain.ClassifiedResponse{
		Text:    "answer",
		Channel: domain.ChannelClipboard,
	})
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("expected dispatch error, got %v", err)
	}
	if code := errorCodeFor(err); code != domain.ErrorCodeClipboard {
		t.Fatalf("clipboard dispatch failure surfaced as %q, want %q", code, domain.ErrorCodeClipboard)
	}
}
