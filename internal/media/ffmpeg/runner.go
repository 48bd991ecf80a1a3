package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes ffmpeg with constructed argument lists.
type Runner struct {
	binary string
}

// NewRunner returns a Runner for the given ffmpeg binary; an empty binary
// falls back to "ffmpeg" on PATH.
func NewRunner(binary string) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{binary: binary}
}

// Binary returns the configured ffmpeg binary.
func (r *Runner) Binary() string {
	return r.binary
}

// Run executes ffmpeg with the given arguments. On failure the error carries
// the tail of stderr, which is where ffmpeg reports what went wrong.
func (r *Runner) Run(ctx context.Context, op string, args []string) error {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", op, err, stderrTail(stderr.String()))
	}
	return nil
}

// stderrTail keeps the last few lines of ffmpeg output; the banner and filter
// chatter before them rarely help.
func stderrTail(output string) string {
	const keepLines = 6
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > keepLines {
		lines = lines[len(lines)-keepLines:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
