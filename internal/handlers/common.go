package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
)

// Console is the terminal the handlers read from and write to
type Console struct {
	Out io.Writer
	Err io.Writer

	in       *bufio.Reader
	terminal *os.File
}

// NewConsole creates a console. When in is a terminal, passwords are read
// without echo and the interactive screens are enabled.
func NewConsole(in io.Reader, out, errOut io.Writer) *Console {
	c := &Console{Out: out, Err: errOut, in: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.terminal = f
	}
	return c
}

// Interactive reports whether input comes from a terminal.
func (c *Console) Interactive() bool {
	return c.terminal != nil
}

// Prompt writes label to stderr and reads one trimmed line.
func (c *Console) Prompt(label string) (string, error) {
	fmt.Fprint(c.Err, label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Password reads a secret, with echo disabled on a terminal.
func (c *Console) Password(label string) (string, error) {
	if c.terminal == nil {
		return c.Prompt(label)
	}

	fmt.Fprint(c.Err, label)
	password, err := term.ReadPassword(int(c.terminal.Fd()))
	fmt.Fprintln(c.Err)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// Confirmer returns the confirmation prompt for destructive actions.
// assumeYes skips the prompt.
func (c *Console) Confirmer(assumeYes bool) services.Confirmer {
	if assumeYes {
		return services.AlwaysConfirm
	}
	return func(prompt string) bool {
		answer, err := c.Prompt(prompt + " [y/N]: ")
		if err != nil {
			return false
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// Printf writes to stdout.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Notef writes a status line to stderr.
func (c *Console) Notef(format string, args ...any) {
	fmt.Fprintf(c.Err, format, args...)
}

// writeJSON prints v as indented JSON.
func (c *Console) writeJSON(v any) error {
	encoder := json.NewEncoder(c.Out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// messageError pairs an error with the inline message a screen would show.
type messageError struct {
	message string
	err     error
}

func (e *messageError) Error() string {
	return e.message
}

func (e *messageError) Unwrap() error {
	return e.err
}

// withMessage attaches the controller's inline error string to err.
func withMessage(err error, message string) error {
	if err == nil || message == "" {
		return err
	}
	return &messageError{message: message, err: err}
}

// UserMessage returns the single human-readable line printed for err.
func UserMessage(err error) string {
	var msgErr *messageError
	if errors.As(err, &msgErr) {
		return msgErr.message
	}

	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		return "You are not logged in. Run 'synvoy login' first."
	case errors.Is(err, services.ErrNotPermitted):
		return "You are not allowed to do that."
	case errors.Is(err, services.ErrCreatorRemoval):
		return "The trip creator cannot be removed."
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	return repository.Message(err, err.Error())
}

// PrintError writes "Error: <message>" to w.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", UserMessage(err))
}
