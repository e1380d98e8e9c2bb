package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/addressbook/internal/screen"
	"github.com/UnknownOlympus/addressbook/internal/session"
	"github.com/UnknownOlympus/addressbook/internal/store"
)

const helpText = `Commands:
  list                 show saved addresses
  add                  open an empty address form
  edit <id>            open the form for an address
  set <field> <value>  set a form field (name, phone, addressLine1, addressLine2, city, state, pincode, country)
  locate               fill the form from the current location
  save                 save the form
  cancel               close the form
  delete <id>          delete an address
  default <id>         make an address the default
  login <user> <token> store a session, used from the next start
  help                 show this help
  quit                 exit
`

// prompter reads one line of user input.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// console drives the address screen from line-oriented text commands.
type console struct {
	screen      *screen.Screen
	in          prompter
	out         io.Writer
	log         *slog.Logger
	sessionFile string
}

// run reads commands until quit, end of input or ctx cancellation.
func (c *console) run(ctx context.Context) error {
	c.render()

	for ctx.Err() == nil {
		line, err := c.in.Prompt("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}

		if quit := c.exec(ctx, line); quit {
			return nil
		}
	}

	return nil
}

// exec runs one command line and reports whether the user asked to quit.
func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	var err error

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.print(helpText)
		return false
	case "list", "ls":
		c.screen.Cancel()
	case "add":
		c.screen.StartCreate()
	case "edit":
		if err = needArgs(args, 1); err == nil {
			err = c.screen.StartEdit(args[0])
		}
	case "set":
		if err = needArgs(args, 1); err == nil {
			err = c.screen.SetField(args[0], strings.Join(args[1:], " "))
		}
	case "locate":
		err = c.screen.UseCurrentLocation(ctx)
	case "save":
		err = c.screen.Save(ctx)
	case "cancel":
		c.screen.Cancel()
	case "delete":
		if err = needArgs(args, 1); err == nil {
			err = c.screen.RequestDelete(ctx, args[0])
		}
	case "default":
		if err = needArgs(args, 1); err == nil {
			err = c.screen.SetDefault(ctx, args[0])
		}
	case "login":
		if err = needArgs(args, 2); err == nil {
			err = c.login(args[0], args[1])
		}
	default:
		err = fmt.Errorf("%w: %q, type help", errUnknownCommand, cmd)
	}

	if err != nil {
		// Store and screen failures have already been alerted.
		c.log.DebugContext(ctx, "Command failed", "command", cmd, "error", err)
		if isInputError(err) {
			c.print(err.Error() + "\n")
		}
	}

	c.render()
	return false
}

var (
	errUsage          = errors.New("missing arguments, type help")
	errUnknownCommand = errors.New("unknown command")
)

// isInputError reports errors that nothing has shown to the user yet.
func isInputError(err error) bool {
	return errors.Is(err, errUsage) ||
		errors.Is(err, errUnknownCommand) ||
		errors.Is(err, screen.ErrUnknownField) ||
		errors.Is(err, store.ErrNotFound)
}

func needArgs(args []string, n int) error {
	if len(args) < n {
		return errUsage
	}
	return nil
}

func (c *console) login(userID, token string) error {
	if err := session.Save(c.sessionFile, session.Session{UserID: userID, Token: token}); err != nil {
		return err
	}
	c.print("Session saved. Restart to use your account addresses.\n")
	return nil
}

func (c *console) render() {
	if err := c.screen.View().Render(c.out); err != nil {
		c.log.Error("failed to render screen", "error", err)
	}
}

func (c *console) print(text string) {
	if _, err := io.WriteString(c.out, text); err != nil {
		c.log.Error("failed to write output", "error", err)
	}
}
