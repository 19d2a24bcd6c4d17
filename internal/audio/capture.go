// Package audio wraps PortAudio microphone capture and audio playback.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"spritely/internal/domain"
	"spritely/internal/ports"
)

// Capture opens exclusive PortAudio input streams.
type Capture struct {
	logger *zap.Logger
}

func NewCapture(logger *zap.Logger) *Capture {
	return &Capture{logger: logger}
}

// Open acquires the capture device and starts the stream. The device index
// is resolved once here; nil selects the system default input.
func (c *Capture) Open(_ context.Context, cfg ports.AudioConfig) (ports.AudioStream, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = 1024
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}

	device, err := resolveDevice(cfg.DeviceIndex)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	buf := make([]int16, cfg.FrameSize*cfg.Channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FrameSize,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input device %q: %w", device.Name, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start capture on %q: %w", device.Name, err)
	}

	c.logger.Info("capture stream opened",
		zap.String("device", device.Name),
		zap.Int("sampleRate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels),
		zap.Int("frameSize", cfg.FrameSize),
	)

	return &captureStream{stream: stream, buf: buf}, nil
}

// Devices enumerates input-capable devices for the settings UI.
func (c *Capture) Devices() ([]domain.InputDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	all, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	defaultDevice, err := portaudio.DefaultInputDevice()
	if err != nil {
		defaultDevice = nil
	}

	var devices []domain.InputDevice
	for i, info := range all {
		if info.MaxInputChannels <= 0 {
			continue
		}
		devices = append(devices, domain.InputDevice{
			Index:      i,
			Name:       info.Name,
			Channels:   info.MaxInputChannels,
			SampleRate: info.DefaultSampleRate,
			Default:    defaultDevice != nil && info.Name == defaultDevice.Name,
		})
	}
	return devices, nil
}

func resolveDevice(index *int) (*portaudio.DeviceInfo, error) {
	if index == nil {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return device, nil
	}

	all, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if *index < 0 || *index >= len(all) {
		return nil, fmt.Errorf("input device index %d out of range", *index)
	}
	device := all[*index]
	if device.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("device %q has no input channels", device.Name)
	}
	return device, nil
}

type captureStream struct {
	stream *portaudio.Stream
	buf    []int16

	closeOnce sync.Once
	closeErr  error
}

// ReadFrame blocks for one frame. Host overflow is surfaced as
// ports.ErrOverflow so the caller can drop the frame and keep reading.
func (s *captureStream) ReadFrame() (domain.AudioFrame, error) {
	if err := s.stream.Read(); err != nil {
		if err == portaudio.InputOverflowed {
			return nil, ports.ErrOverflow
		}
		return nil, err
	}

	frame := make(domain.AudioFrame, len(s.buf)*2)
	for i, sample := range s.buf {
		binary.LittleEndian.PutUint16(frame[i*2:], uint16(sample))
	}
	return frame, nil
}

func (s *captureStream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stream.Stop()
		s.closeErr = s.stream.Close()
		_ = portaudio.Terminate()
	})
	return s.closeErr
}
