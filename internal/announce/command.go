package announce

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandAnnouncer speaks a briefing through an external text-to-speech
// program such as "espeak" or "say". The briefing text is passed as the
// last argument.
type CommandAnnouncer struct {
	name    string
	args    []string
	timeout time.Duration
}

// NewCommandAnnouncer splits command on whitespace. It returns an error for
// an empty command.
func NewCommandAnnouncer(command string, timeout time.Duration) (*CommandAnnouncer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("announce command is empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandAnnouncer{name: fields[0], args: fields[1:], timeout: timeout}, nil
}

// Announce runs the command and waits for it.
func (c *CommandAnnouncer) Announce(ctx context.Context, b Briefing) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string(nil), c.args...), b.Text())
	cmd := exec.CommandContext(ctx, c.name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.name, err, msg)
		}
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}
