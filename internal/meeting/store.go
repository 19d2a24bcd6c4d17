// Package meeting persists finished meeting transcripts as plain-text files.
package meeting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spritely/internal/domain"
)

// FileStore writes one timestamped transcript file per meeting.
type FileStore struct {
	dir string
	// now is injectable for testing.
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// Save renders the entries and writes them to a new file, returning its
// path. Empty transcripts are skipped entirely.
func (s *FileStore) Save(entries []domain.MeetingEntry) (string, error) {
	kept := make([]domain.MeetingEntry, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Transcript) == "" {
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) == 0 {
		return "", errors.New("no transcript entries to persist")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create meeting directory: %w", err)
	}

	now := s.now()
	path := filepath.Join(s.dir, fmt.Sprintf("meeting_%s.txt", now.Format("20060102_150405")))

	content := Render(kept, now)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write meeting transcript: %w", err)
	}
	return path, nil
}

// Render formats a transcript: a header block followed by one line per
// finalized fragment in arrival order. The speaker tag is omitted when
// diarization info is absent.
func Render(entries []domain.MeetingEntry, recordedAt time.Time) string {
	var sb strings.Builder
	sb.WriteString("Meeting Transcript\n")
	sb.WriteString("Date: " + recordedAt.Format("2006-01-02 15:04") + "\n")
	sb.WriteString("\n")

	for _, entry := range entries {
		sb.WriteString("[" + entry.Timestamp.Format("15:04:05") + "] ")
		if entry.Speaker != nil {
			sb.WriteString(fmt.Sprintf("Speaker %d: ", *entry.Speaker))
		}
		sb.WriteString(entry.Transcript)
		sb.WriteString("\n")
	}
	return sb.String()
}
