// Package settings persists user preferences (currently the microphone
// selection) to a small JSON file.
package settings

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

const keyMicrophoneIndex = "microphone_index"

// Store is a viper-backed settings record. A missing file behaves as empty
// defaults; a nil microphone index means the system default input device.
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// Open loads the settings file at path, creating parent directories so the
// first save succeeds.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("settings path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return &Store{v: v, path: path}, nil
}

// MicrophoneIndex returns the saved device index, or nil for system default.
func (s *Store) MicrophoneIndex() *int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.v.IsSet(keyMicrophoneIndex) || s.v.Get(keyMicrophoneIndex) == nil {
		return nil
	}
	index := s.v.GetInt(keyMicrophoneIndex)
	return &index
}

// SetMicrophoneIndex saves the selection and writes the file, nil meaning
// system default.
func (s *Store) SetMicrophoneIndex(index *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index == nil {
		s.v.Set(keyMicrophoneIndex, nil)
	} else {
		s.v.Set(keyMicrophoneIndex, *index)
	}
	return s.v.WriteConfigAs(s.path)
}
