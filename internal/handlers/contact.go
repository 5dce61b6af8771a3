package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"synvoy-client/internal/clock"
	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
)

// ContactHandler handles the contact command
type ContactHandler struct {
	contactRepo *repository.ContactRepository
	sessions    *services.SessionManager
	clock       clock.Clock
	console     *Console
	stdin       io.Reader
}

// NewContactHandler creates a new contact handler. stdin is read when the
// message is given as "-".
func NewContactHandler(
	contactRepo *repository.ContactRepository,
	sessions *services.SessionManager,
	clk clock.Clock,
	console *Console,
	stdin io.Reader,
) *ContactHandler {
	return &ContactHandler{
		contactRepo: contactRepo,
		sessions:    sessions,
		clock:       clk,
		console:     console,
		stdin:       stdin,
	}
}

// Command returns the contact command.
func (h *ContactHandler) Command() *Command {
	var form models.ContactForm
	var phone string
	return &Command{
		Name:    "contact",
		Summary: "Send a message to the Synvoy team",
		Usage:   "synvoy contact --subject text --message text|- [--name name] [--email address] [--phone number]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("contact", pflag.ContinueOnError)
			flagSet.StringVar(&form.Name, "name", "", "your name (default: the logged-in user's)")
			flagSet.StringVarP(&form.Email, "email", "e", "", "reply address (default: the logged-in user's)")
			flagSet.StringVarP(&form.Subject, "subject", "s", "", "message subject")
			flagSet.StringVarP(&form.Message, "message", "m", "", "message body, or - to read it from stdin")
			flagSet.StringVar(&phone, "phone", "", "phone number (optional)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 0, "no arguments"); err != nil {
				return err
			}
			form.Phone = nil
			if phone != "" {
				form.Phone = &phone
			}
			return h.Submit(ctx, form)
		},
	}
}

// Submit fills the sender from the session when omitted and posts the form.
func (h *ContactHandler) Submit(ctx context.Context, form models.ContactForm) error {
	if user := h.sessions.CurrentUser(); user != nil {
		if form.Name == "" {
			form.Name = user.DisplayName()
		}
		if form.Email == "" {
			form.Email = user.Email
		}
	}
	if form.Message == "-" {
		body, err := io.ReadAll(h.stdin)
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}
		form.Message = string(body)
	}

	ctl := services.NewContactController(h.contactRepo, h.clock)
	defer ctl.Close()

	if err := ctl.Submit(ctx, form); err != nil {
		return withMessage(err, ctl.State().Error)
	}
	h.console.Printf("Message sent. We'll get back to you soon.\n")
	return nil
}
