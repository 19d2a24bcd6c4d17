package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
)

// ExecPlayer plays an audio stream by piping it into an external player
// process (ffplay by default). Run blocks until playback finishes.
type ExecPlayer struct {
	command string
}

func NewExecPlayer(command string) *ExecPlayer {
	if command == "" {
		command = "ffplay"
	}
	return &ExecPlayer{command: command}
}

func (p *ExecPlayer) Play(ctx context.Context, audio io.Reader) error {
	cmd := exec.CommandContext(ctx, p.command,
		"-autoexit",
		"-nodisp",
		"-loglevel", "quiet",
		"-i", "-",
	)
	cmd.Stdin = audio

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("audio playback failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return fmt.Errorf("audio playback failed: %w", err)
	}
	return nil
}
