package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spritely/internal/domain"
	"spritely/internal/ports"
)

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached before deadline")
}

type fakeAudioSource struct {
	mu       sync.Mutex
	sessions []ports.AudioStream
	err      error
	calls    int
}

func (f *fakeAudioSource) Open(_ context.Context, _ ports.AudioConfig) (ports.AudioStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no audio stream configured")
	}
	stream := f.sessions[f.calls]
	f.calls++
	return stream, nil
}

func (f *fakeAudioSource) Devices() ([]domain.InputDevice, error) {
	return nil, nil
}

func (f *fakeAudioSource) openCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// readResult is one scripted outcome of fakeAudioStream.ReadFrame.
type readResult struct {
	frame domain.AudioFrame
	err   error
}

// fakeAudioStream serves its scripted reads, then blocks until closed the
// way a real capture device does between frames.
type fakeAudioStream struct {
	mu     sync.Mutex
	reads  []readResult
	closed chan struct{}
	once   sync.Once
}

func newFakeAudioStream(reads ...readResult) *fakeAudioStream {
	return &fakeAudioStream{reads: reads, closed: make(chan struct{})}
}

func (f *fakeAudioStream) ReadFrame() (domain.AudioFrame, error) {
	f.mu.Lock()
	if len(f.reads) > 0 {
		r := f.reads[0]
		f.reads = f.reads[1:]
		f.mu.Unlock()
		return r.frame, r.err
	}
	f.mu.Unlock()
	<-f.closed
	return nil, errors.New("capture stream closed")
}

func (f *fakeAudioStream) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

type fakeProvider struct {
	mu       sync.Mutex
	sessions []ports.StreamingSession
	err      error
	calls    int
}

func (f *fakeProvider) StartStreaming(_ context.Context, cfg ports.StreamingConfig) (ports.StreamingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no stream session configured")
	}
	session := f.sessions[f.calls]
	f.calls++
	if s, ok := session.(*fakeStreamingSession); ok {
		s.cfg = cfg
	}
	return session, nil
}

func (f *fakeProvider) startCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStreamingSession struct {
	mu         sync.Mutex
	events     chan domain.TranscriptEvent
	cfg        ports.StreamingConfig
	sent       []domain.AudioFrame
	sendErr    error
	closeSend  int
	closeCalls int
	closed     bool
}

func newFakeStreamingSession(events ...domain.TranscriptEvent) *fakeStreamingSession {
	s := &fakeStreamingSession{events: make(chan domain.TranscriptEvent, 32)}
	for _, ev := range events {
		s.events <- ev
	}
	return s
}

func (f *fakeStreamingSession) SendAudio(frame domain.AudioFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeStreamingSession) CloseSend() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeSend++
	if !f.closed {
		close(f.events)
		f.closed = true
	}
	return nil
}

func (f *fakeStreamingSession) Events() <-chan domain.TranscriptEvent { return f.events }

func (f *fakeStreamingSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	if !f.closed {
		close(f.events)
		f.closed = true
	}
	return nil
}

func (f *fakeStreamingSession) closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

func (f *fakeStreamingSession) sentFrames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeClassifier struct {
	channel       domain.Channel
	lowConfidence bool
	err           error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeClassifier) Classify(_ context.Context, prompt string) (domain.Channel, bool, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	return f.channel, f.lowConfidence, nil
}

func (f *fakeClassifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeCompleter struct {
	text string
	err  error

	mu            sync.Mutex
	prompts       []string
	systemPrompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, systemPrompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeSpeech struct {
	err error

	mu     sync.Mutex
	spoken []string
}

func (f *fakeSpeech) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSpeech) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	copy(out, f.spoken)
	return out
}

type fakeClipboard struct {
	mu       sync.Mutex
	contents string
	readErr  error
	writeErr error
	writes   []string
}

func (f *fakeClipboard) ReadText() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.contents, nil
}

func (f *fakeClipboard) WriteText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.contents = text
	f.writes = append(f.writes, text)
	return nil
}

func (f *fakeClipboard) lastWrite() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return ""
	}
	return f.writes[len(f.writes)-1]
}

type fakePaster struct {
	err error

	mu    sync.Mutex
	calls int
}

func (f *fakePaster) Paste(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakePaster) pastes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeMeetingStore struct {
	path string
	err  error

	mu    sync.Mutex
	saved [][]domain.MeetingEntry
}

func (f *fakeMeetingStore) Save(entries []domain.MeetingEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, entries)
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

type fakeEventSink struct {
	mu sync.Mutex

	states    []stateEvent
	fragments []string
	responses []domain.ClassifiedResponse
	errors    []errEvent
}

type stateEvent struct {
	state  domain.SessionState
	reason domain.SessionStateReason
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

func (f *fakeEventSink) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeEventSink) TranscriptFragment(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fragments = append(f.fragments, text)
}

func (f *fakeEventSink) ResponseDispatched(response domain.ClassifiedResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response)
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) snapshotFragments() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.fragments))
	copy(out, f.fragments)
	return out
}

func (f *fakeEventSink) snapshotResponses() []domain.ClassifiedResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ClassifiedResponse, len(f.responses))
	copy(out, f.responses)
	return out
}

func (f *fakeEventSink) hasError(code domain.ErrorCode) bool {
	for _, e := range f.snapshotErrors() {
		if e.code == code {
			return true
		}
	}
	return false
}
