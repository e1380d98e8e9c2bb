package alert_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/UnknownOlympus/addressbook/internal/alert"
	"github.com/stretchr/testify/assert"
)

func TestConsole_Alert(t *testing.T) {
	var out bytes.Buffer
	console := alert.NewConsole(strings.NewReader(""), &out, slog.Default())

	console.Alert(alert.TitleError, "Please fill all required fields")

	assert.Equal(t, "[Error] Please fill all required fields\n", out.String())
}

func TestConsole_Confirm(t *testing.T) {
	t.Run("yes answer", func(t *testing.T) {
		var out bytes.Buffer
		console := alert.NewConsole(strings.NewReader("y\n"), &out, slog.Default())

		assert.True(t, console.Confirm(alert.TitleDeleteAddress, "Sure?"))
		assert.Contains(t, out.String(), "[Delete Address] Sure? [y/N]: ")
	})

	t.Run("full word without newline", func(t *testing.T) {
		console := alert.NewConsole(strings.NewReader("YES"), &bytes.Buffer{}, slog.Default())

		assert.True(t, console.Confirm(alert.TitleDeleteAddress, "Sure?"))
	})

	t.Run("anything else is no", func(t *testing.T) {
		console := alert.NewConsole(strings.NewReader("nope\n"), &bytes.Buffer{}, slog.Default())

		assert.False(t, console.Confirm(alert.TitleDeleteAddress, "Sure?"))
	})

	t.Run("closed input is no", func(t *testing.T) {
		console := alert.NewConsole(strings.NewReader(""), &bytes.Buffer{}, slog.Default())

		assert.False(t, console.Confirm(alert.TitleDeleteAddress, "Sure?"))
	})
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	notifier := alert.NewLog(logger, true)
	notifier.Alert(alert.TitleError, "boom")

	assert.True(t, notifier.Confirm(alert.TitleDeleteAddress, "Sure?"))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "message=boom")
	assert.False(t, alert.NewLog(logger, false).Confirm("t", "m"))
}

func TestConsole_Prompt(t *testing.T) {
	var out bytes.Buffer
	console := alert.NewConsole(strings.NewReader("list\r\nadd\n"), &out, slog.Default())

	line, err := console.Prompt("> ")
	assert.NoError(t, err)
	assert.Equal(t, "list", line)

	line, err = console.Prompt("> ")
	assert.NoError(t, err)
	assert.Equal(t, "add", line)

	_, err = console.Prompt("> ")
	assert.Error(t, err)
	assert.Equal(t, "> > > ", out.String())
}
