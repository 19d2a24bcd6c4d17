package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"spritely/internal/domain"
	"spritely/internal/ports"
)

func intPtr(v int) *int { return &v }

func TestMeetingRecorderCollectsDiarizedEntries(t *testing.T) {
	t.Parallel()

	stream := newFakeStreamingSession(
		domain.TranscriptEvent{IsFinal: true, Text: "good morning", Speaker: intPtr(0), Confidence: 0.98, Start: 0.1, Duration: 1.2},
		domain.TranscriptEvent{IsFinal: false, Text: "mor"},
		domain.TranscriptEvent{IsFinal: true, Text: "morning all", Speaker: intPtr(1), Confidence: 0.91, Start: 1.6, Duration: 0.8},
	)
	store := &fakeMeetingStore{path: "/tmp/meeting_test.txt"}
	events := &fakeEventSink{}

	recorder := NewMeetingRecorder(
		&fakeAudioSource{sessions: []ports.AudioStream{newFakeAudioStream()}},
		&fakeProvider{sessions: []ports.StreamingSession{stream}},
		store,
		events,
		zap.NewNop(),
		ControllerConfig{},
	)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// The recorder forces diarization regardless of config.
	if !stream.cfg.Diarize {
		t.Fatalf("expected diarization enabled")
	}

	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(store.saved))
	}
	entries := store.saved[0]
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Transcript != "good morning" || *entries[0].Speaker != 0 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Transcript != "morning all" || *entries[1].Speaker != 1 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}

	states := events.snapshotStates()
	last := states[len(states)-1]
	if last.state != domain.SessionStateIdle || last.reason != domain.SessionReasonMeetingSaved {
		t.Fatalf("unexpected final state event: %+v", last)
	}
}

func TestMeetingRecorderPersistenceFailureStillIdles(t *testing.T) {
	t.Parallel()

	stream := newFakeStreamingSession(
		domain.TranscriptEvent{IsFinal: true, Text: "unsaved"},
	)
	store := &fakeMeetingStore{err: errors.New("disk full")}
	events := &fakeEventSink{}

	recorder := NewMeetingRecorder(
		&fakeAudioSource{sessions: []ports.AudioStream{newFakeAudioStream()}},
		&fakeProvider{sessions: []ports.StreamingSession{stream}},
		store,
		events,
		zap.NewNop(),
		ControllerConfig{},
	)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := recorder.Stop(context.Background()); err == nil {
		t.Fatalf("expected persistence error")
	}

	if !events.hasError(domain.ErrorCodePersistence) {
		t.Fatalf("expected persistence error event")
	}
	if recorder.Status().State != domain.SessionStateIdle {
		t.Fatalf("recorder must idle even when the save fails")
	}

	// Entries stay available for manual recovery.
	if got := recorder.Entries(); len(got) != 1 || got[0].Transcript != "unsaved" {
		t.Fatalf("expected retained entries, got %+v", got)
	}
}

func TestMeetingRecorderStopWithoutRecordingIsNoOp(t *testing.T) {
	t.Parallel()

	store := &fakeMeetingStore{}
	recorder := NewMeetingRecorder(
		&fakeAudioSource{},
		&fakeProvider{},
		store,
		&fakeEventSink{},
		zap.NewNop(),
		ControllerConfig{},
	)

	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop without recording should be a no-op, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("nothing should be saved without a recording")
	}
}

func TestMeetingRecorderEntriesReadableWhileRecording(t *testing.T) {
	t.Parallel()

	stream := newFakeStreamingSession(
		domain.TranscriptEvent{IsFinal: true, Text: "first point", Speaker: intPtr(0)},
		domain.TranscriptEvent{IsFinal: true, Text: "second point", Speaker: intPtr(1)},
	)
	recorder := NewMeetingRecorder(
		&fakeAudioSource{sessions: []ports.AudioStream{newFakeAudioStream()}},
		&fakeProvider{sessions: []ports.StreamingSession{stream}},
		&fakeMeetingStore{path: "/tmp/meeting_live.txt"},
		&fakeEventSink{},
		zap.NewNop(),
		ControllerConfig{},
	)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Poll the live recording; appends happen on the bridge concurrently.
	waitUntil(t, func() bool { return len(recorder.Entries()) == 2 })

	got := recorder.Entries()
	if got[0].Transcript != "first point" || got[1].Transcript != "second point" {
		t.Fatalf("unexpected live entries: %+v", got)
	}

	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}
