// Package deepgram implements streaming transcription over the Deepgram
// live websocket API.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"spritely/internal/domain"
	"spritely/internal/ports"
)

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey     string
	APIBaseURL string
	Model      string
}

// Provider implements ports.TranscriptionProvider for Deepgram.
type Provider struct {
	cfg Config
}

func NewProvider(cfg Config) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) StartStreaming(ctx context.Context, cfg ports.StreamingConfig) (ports.StreamingSession, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}

	wsURL, err := buildListenURL(p.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Deepgram websocket: %w", err)
	}

	session := &streamingSession{
		conn:     conn,
		events:   make(chan domain.TranscriptEvent, 64),
		audio:    make(chan []byte, 32),
		sendDone: make(chan struct{}),
		done:     make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type streamingSession struct {
	conn *websocket.Conn

	events chan domain.TranscriptEvent
	audio  chan []byte

	// sendDone signals the end of outgoing audio. The audio channel itself is
	// never closed, so a sender parked on it unblocks through sendDone.
	sendDone chan struct{}
	done     chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
}

func (s *streamingSession) SendAudio(frame domain.AudioFrame) error {
	if len(frame) == 0 {
		return nil
	}

	select {
	case <-s.sendDone:
		return errors.New("audio stream is already closed")
	default:
	}

	copied := append([]byte(nil), frame...)
	select {
	case s.audio <- copied:
		return nil
	case <-s.sendDone:
		return errors.New("audio stream is already closed")
	case <-s.done:
		if err := s.sessionErr(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *streamingSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		close(s.sendDone)
	})
	return nil
}

func (s *streamingSession) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *streamingSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.sessionErr()
}

func (s *streamingSession) sessionErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamingSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *streamingSession) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case frame := <-s.audio:
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.setErr(fmt.Errorf("failed to send audio: %w", err))
				return
			}
		case <-s.sendDone:
			s.finishStream()
			return
		}
	}
}

// finishStream flushes frames buffered before CloseSend, then asks the server
// to finalize the transcript.
func (s *streamingSession) finishStream() {
	for {
		select {
		case frame := <-s.audio:
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.setErr(fmt.Errorf("failed to send audio: %w", err))
				return
			}
		default:
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
				s.setErr(fmt.Errorf("failed to close stream: %w", err))
			}
			return
		}
	}
}

func (s *streamingSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read provider event: %w", err))
			return
		}

		var response listenResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			s.setErr(errors.New(message))
			return
		}

		event, ok := toTranscriptEvent(response)
		if !ok {
			continue
		}
		s.emit(event)
	}
}

func (s *streamingSession) emit(event domain.TranscriptEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	}
}

type listenResponse struct {
	Type     string  `json:"type"`
	Message  string  `json:"message"`
	IsFinal  bool    `json:"is_final"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`

	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
			Words      []struct {
				Word    string `json:"word"`
				Speaker *int   `json:"speaker"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"channel"`

	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
}

func toTranscriptEvent(response listenResponse) (domain.TranscriptEvent, bool) {
	if len(response.Channel.Alternatives) == 0 {
		return domain.TranscriptEvent{}, false
	}
	alt := response.Channel.Alternatives[0]
	text := strings.TrimSpace(alt.Transcript)
	if text == "" {
		return domain.TranscriptEvent{}, false
	}

	event := domain.TranscriptEvent{
		IsFinal:    response.IsFinal,
		Text:       text,
		Confidence: alt.Confidence,
		Start:      response.Start,
		Duration:   response.Duration,
		RequestID:  response.Metadata.RequestID,
		Timestamp:  time.Now(),
	}
	if len(alt.Words) > 0 && alt.Words[0].Speaker != nil {
		speaker := *alt.Words[0].Speaker
		event.Speaker = &speaker
	}
	return event, true
}

func buildListenURL(providerCfg Config, streamCfg ports.StreamingConfig) (string, error) {
	base := strings.TrimSpace(providerCfg.APIBaseURL)
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	if streamCfg.Encoding == "" {
		streamCfg.Encoding = "linear16"
	}
	if streamCfg.SampleRate <= 0 {
		streamCfg.SampleRate = 44100
	}
	if streamCfg.Channels <= 0 {
		streamCfg.Channels = 1
	}

	query := listenURL.Query()
	query.Set("model", providerCfg.Model)
	query.Set("encoding", streamCfg.Encoding)
	query.Set("sample_rate", fmt.Sprintf("%d", streamCfg.SampleRate))
	query.Set("channels", fmt.Sprintf("%d", streamCfg.Channels))
	query.Set("interim_results", fmt.Sprintf("%t", streamCfg.InterimResults))
	query.Set("punctuate", fmt.Sprintf("%t", streamCfg.Punctuate))
	if streamCfg.Diarize {
		query.Set("diarize", "true")
	}
	if streamCfg.Language != "" {
		query.Set("language", streamCfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
