package usecase

import (
	"strings"
	"sync"
)

// TranscriptCollector accumulates finalized transcript fragments for one
// recording session, in arrival order. No deduplication: repeated identical
// fragments are kept, matching how disfluencies come back from the vendor.
type TranscriptCollector struct {
	mu        sync.Mutex
	fragments []string
}

func NewTranscriptCollector() *TranscriptCollector {
	return &TranscriptCollector{}
}

// Append records one finalized fragment. Blank fragments are ignored.
func (c *TranscriptCollector) Append(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	c.mu.Lock()
	c.fragments = append(c.fragments, trimmed)
	c.mu.Unlock()
}

// Seed prepends a tagged snapshot of the clipboard as a pseudo-fragment so
// the completion request can reference material the user already copied.
func (c *TranscriptCollector) Seed(clipboardText string) {
	trimmed := strings.TrimSpace(clipboardText)
	if trimmed == "" {
		return
	}
	c.mu.Lock()
	c.fragments = append([]string{"[clipboard contents] " + trimmed}, c.fragments...)
	c.mu.Unlock()
}

// Assemble joins the fragments in arrival order, each followed by a space.
func (c *TranscriptCollector) Assemble() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sb strings.Builder
	for _, fragment := range c.fragments {
		sb.WriteString(fragment)
		sb.WriteString(" ")
	}
	return sb.String()
}

// Len reports the number of collected fragments.
func (c *TranscriptCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fragments)
}

// Reset clears the collector for the next session.
func (c *TranscriptCollector) Reset() {
	c.mu.Lock()
	c.fragments = nil
	c.mu.Unlock()
}
