// Package output applies response side effects: clipboard writes and
// simulated paste keystrokes.
package output

import (
	"github.com/atotto/clipboard"
)

// SystemClipboard is the process-wide clipboard resource. Writes are
// last-writer-wins; there is no locking.
type SystemClipboard struct{}

func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (c *SystemClipboard) ReadText() (string, error) {
	return clipboard.ReadAll()
}

func (c *SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}
