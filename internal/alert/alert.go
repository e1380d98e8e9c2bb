// Package alert delivers user-facing messages: blocking alerts and yes/no confirmations.
package alert

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Common alert titles.
const (
	TitleError            = "Error"
	TitleSuccess          = "Success"
	TitlePermissionDenied = "Permission Denied"
	TitleDeleteAddress    = "Delete Address"
)

// Notifier shows messages to the user.
type Notifier interface {
	Alert(title, message string)
	Confirm(title, message string) bool
}

// Console writes alerts to a terminal and reads confirmations from it.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader
	log *slog.Logger
}

// NewConsole creates a notifier bound to the given input and output streams.
func NewConsole(in io.Reader, out io.Writer, log *slog.Logger) *Console {
	return &Console{out: out, in: bufio.NewReader(in), log: log}
}

// Alert prints a titled message.
func (c *Console) Alert(title, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "[%s] %s\n", title, message); err != nil {
		c.log.Error("failed to write alert", "title", title, "error", err)
	}
}

// Confirm prints the question and waits for a y/yes answer. Anything else,
// including a read failure, counts as "no".
func (c *Console) Confirm(title, message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "[%s] %s [y/N]: ", title, message); err != nil {
		c.log.Error("failed to write confirmation", "title", title, "error", err)
		return false
	}

	answer, err := c.in.ReadString('\n')
	if err != nil && answer == "" {
		c.log.Warn("confirmation aborted", "title", title, "error", err)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Prompt prints prompt and returns the next input line without its line ending.
// The command loop shares the reader with Confirm so answers are not lost to buffering.
func (c *Console) Prompt(prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprint(c.out, prompt); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Log records alerts in the structured log. Confirmations always return the
// configured answer; it is meant for headless runs.
type Log struct {
	log    *slog.Logger
	answer bool
}

// NewLog creates a logging notifier that answers every confirmation with answer.
func NewLog(log *slog.Logger, answer bool) *Log {
	return &Log{log: log, answer: answer}
}

// Alert logs the message at warn level for errors and info otherwise.
func (l *Log) Alert(title, message string) {
	if title == TitleError || title == TitlePermissionDenied {
		l.log.Warn("alert", "title", title, "message", message)
		return
	}
	l.log.Info("alert", "title", title, "message", message)
}

// Confirm logs the question and returns the preset answer.
func (l *Log) Confirm(title, message string) bool {
	l.log.Info("confirmation", "title", title, "message", message, "answer", l.answer)
	return l.answer
}
