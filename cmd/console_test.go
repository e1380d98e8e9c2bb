package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/UnknownOlympus/addressbook/internal/alert"
	"github.com/UnknownOlympus/addressbook/internal/metrics"
	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/UnknownOlympus/addressbook/internal/repository"
	"github.com/UnknownOlympus/addressbook/internal/screen"
	"github.com/UnknownOlympus/addressbook/internal/session"
	"github.com/UnknownOlympus/addressbook/internal/store"
	"github.com/UnknownOlympus/addressbook/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConsole builds a console over an in-memory store fed by the given input lines.
func newConsole(t *testing.T, input string) (*console, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	notifier := alert.NewConsole(strings.NewReader(input), out, slog.Default())
	repo := repository.NewMemory(models.FallbackAddresses(), slog.Default())
	addressStore := store.New(repo, notifier, slog.Default(), metrics.NewMetrics(prometheus.NewRegistry()))
	scr := screen.New(
		addressStore, mocks.NewProvider(t), screen.NewStaticLocator(nil), notifier, slog.Default(), screen.Options{},
	)
	scr.Load(t.Context())

	return &console{
		screen:      scr,
		in:          notifier,
		out:         out,
		log:         slog.Default(),
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
	}, out
}

func TestConsoleRun(t *testing.T) {
	t.Parallel()

	t.Run("renders the list and stops at end of input", func(t *testing.T) {
		t.Parallel()
		cons, out := newConsole(t, "")

		require.NoError(t, cons.run(t.Context()))

		assert.Contains(t, out.String(), "#1 Rahul Sharma (Default)")
		assert.Contains(t, out.String(), "Mumbai, Maharashtra - 400001")
	})

	t.Run("adds an address through the form", func(t *testing.T) {
		t.Parallel()
		input := strings.Join([]string{
			"add",
			"set name Priya Patel",
			"set phone 9123456780",
			"set addressLine1 12 Park Street",
			"set city Kolkata",
			"set state West Bengal",
			"set pincode 700016",
			"save",
			"quit",
		}, "\n") + "\n"
		cons, out := newConsole(t, input)

		require.NoError(t, cons.run(t.Context()))

		assert.Contains(t, out.String(), "== "+screen.TitleAddForm+" ==")
		assert.Contains(t, out.String(), "[Success] "+screen.MsgAddressAdded)
		assert.Contains(t, out.String(), "Priya Patel")
		assert.Equal(t, screen.ModeList, cons.screen.Mode())
	})

	t.Run("the last address cannot be deleted", func(t *testing.T) {
		t.Parallel()
		cons, out := newConsole(t, "delete 1\n")

		require.NoError(t, cons.run(t.Context()))

		assert.Contains(t, out.String(), "[Error] "+store.MsgLastAddress)
	})
}

func TestConsoleExec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		want    string
		form    bool
	}{
		{name: "unknown command", line: "fly", want: "unknown command"},
		{name: "missing arguments", line: "edit", want: errUsage.Error()},
		{name: "unknown field", line: "set color red", want: screen.ErrUnknownField.Error(), form: true},
		{name: "unknown address", line: "edit 42", want: store.ErrNotFound.Error()},
		{name: "help", line: "help", want: "default <id>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cons, out := newConsole(t, "")
			if tt.form {
				cons.screen.StartCreate()
			}

			quit := cons.exec(t.Context(), tt.line)

			assert.False(t, quit)
			assert.Contains(t, out.String(), tt.want)
		})
	}

	t.Run("quit", func(t *testing.T) {
		t.Parallel()
		cons, _ := newConsole(t, "")

		assert.True(t, cons.exec(t.Context(), "exit"))
	})

	t.Run("login saves the session", func(t *testing.T) {
		t.Parallel()
		cons, out := newConsole(t, "")

		cons.exec(t.Context(), "login user-7 secret")

		sess, err := session.Load(cons.sessionFile)
		require.NoError(t, err)
		assert.Equal(t, session.Session{UserID: "user-7", Token: "secret"}, sess)
		assert.Contains(t, out.String(), "Session saved")
	})
}
