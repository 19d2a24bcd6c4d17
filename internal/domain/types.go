package domain

import "time"

// SessionState models the recording lifecycle.
type SessionState string

const (
	SessionStateIdle     SessionState = "idle"
	SessionStateStarting SessionState = "starting"
	SessionStateActive   SessionState = "active"
	SessionStateStopping SessionState = "stopping"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady              SessionStateReason = "ready"
	SessionReasonRecordingStarted   SessionStateReason = "recording_started"
	SessionReasonFinalizing         SessionStateReason = "finalizing"
	SessionReasonResponseDispatched SessionStateReason = "response_dispatched"
	SessionReasonNoTranscript       SessionStateReason = "no_transcript"
	SessionReasonFinalizeFailed     SessionStateReason = "finalize_failed"
	SessionReasonStartFailed        SessionStateReason = "start_failed"
	SessionReasonMeetingSaved       SessionStateReason = "meeting_saved"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeDevice        ErrorCode = "device"
	ErrorCodeOverflow      ErrorCode = "overflow"
	ErrorCodeConnection    ErrorCode = "connection"
	ErrorCodeAudioStream   ErrorCode = "audio_stream"
	ErrorCodeClassify      ErrorCode = "classify"
	ErrorCodeCompletion    ErrorCode = "completion"
	ErrorCodeClipboard     ErrorCode = "clipboard"
	ErrorCodePaste         ErrorCode = "paste"
	ErrorCodeSpeech        ErrorCode = "speech"
	ErrorCodePersistence   ErrorCode = "persistence"
	ErrorCodeTranscription ErrorCode = "transcription"
)

// Channel is the routing decision for a completed response.
type Channel string

const (
	ChannelSpeak     Channel = "speak"
	ChannelClipboard Channel = "clipboard"
	ChannelStore     Channel = "store"
	ChannelField     Channel = "field"
)

// AudioFrame is one fixed-size chunk of 16-bit little-endian PCM samples.
// It is handed from the capture loop to the streaming session and not
// retained after send.
type AudioFrame []byte

// TranscriptEvent represents one message from the streaming transcription
// backend. Speaker is nil when diarization is off or the backend did not tag
// the segment.
type TranscriptEvent struct {
	IsFinal    bool      `json:"isFinal"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Speaker    *int      `json:"speaker,omitempty"`
	Start      float64   `json:"start"`
	Duration   float64   `json:"duration"`
	RequestID  string    `json:"requestId"`
	Timestamp  time.Time `json:"timestamp"`
}

// ClassifiedResponse is the routed result of one finalize pipeline run.
// Text may be empty for the speak channel since speech is played directly.
type ClassifiedResponse struct {
	Text    string  `json:"text"`
	Channel Channel `json:"channel"`
	// LowConfidence marks a classification that matched no keyword at all and
	// fell back to the clipboard channel.
	LowConfidence bool `json:"lowConfidence"`
}

// Exchange is one remembered conversation turn.
type Exchange struct {
	Timestamp    time.Time `json:"timestamp"`
	UserInput    string    `json:"userInput"`
	Response     string    `json:"response"`
	ResponseType Channel   `json:"responseType"`
}

// MeetingEntry is one finalized diarized fragment of a meeting recording.
type MeetingEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Transcript string    `json:"transcript"`
	Confidence float64   `json:"confidence"`
	Speaker    *int      `json:"speaker,omitempty"`
	Start      float64   `json:"start"`
	Duration   float64   `json:"duration"`
	RequestID  string    `json:"requestId"`
}

// InputDevice describes one selectable capture device.
type InputDevice struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Channels   int     `json:"channels"`
	SampleRate float64 `json:"sampleRate"`
	Default    bool    `json:"default"`
}

// Status summarizes the current runtime status.
type Status struct {
	State   SessionState `json:"state"`
	Active  bool         `json:"active"`
	Message string       `json:"message,omitempty"`
}
