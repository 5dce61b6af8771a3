package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"synvoy-client/internal/clock"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
)

// VerifyUI runs an interactive verification screen for flow.
type VerifyUI func(ctx context.Context, flow *services.VerificationFlow) (services.Destination, error)

// VerifyHandler handles the verify command
type VerifyHandler struct {
	authRepo *repository.AuthRepository
	sessions *services.SessionManager
	clock    clock.Clock
	config   services.VerificationConfig
	console  *Console
	ui       VerifyUI
}

// NewVerifyHandler creates a new verify handler. ui may be nil, in which case
// codes are read line by line.
func NewVerifyHandler(
	authRepo *repository.AuthRepository,
	sessions *services.SessionManager,
	clk clock.Clock,
	config services.VerificationConfig,
	console *Console,
	ui VerifyUI,
) *VerifyHandler {
	return &VerifyHandler{
		authRepo: authRepo,
		sessions: sessions,
		clock:    clk,
		config:   config,
		console:  console,
		ui:       ui,
	}
}

// Command returns the verify command.
func (h *VerifyHandler) Command() *Command {
	var email, code string
	return &Command{
		Name:    "verify",
		Summary: "Verify your email address with the 6-digit code",
		Usage:   "synvoy verify [--email address] [--code 123456]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			flagSet.StringVarP(&email, "email", "e", "", "address to verify (default: the logged-in user's)")
			flagSet.StringVarP(&code, "code", "c", "", "submit this code without the interactive screen")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 0, "no arguments"); err != nil {
				return err
			}
			_, err := h.Verify(ctx, email, code)
			return err
		},
	}
}

// Verify runs the verification for email and reports where the user ends up.
func (h *VerifyHandler) Verify(ctx context.Context, email, code string) (services.Destination, error) {
	if email == "" {
		if user := h.sessions.CurrentUser(); user != nil {
			email = user.Email
		}
	}

	flow := services.NewVerificationFlow(h.authRepo, h.sessions, h.clock, h.config, email)
	if email == "" {
		h.console.Notef("No email address to verify. Log in or pass --email.\n")
		return services.DestinationHome, nil
	}

	if code != "" {
		return h.submitOnce(ctx, flow, code)
	}
	if h.ui != nil && h.console.Interactive() {
		dest, err := h.ui(ctx, flow)
		if err != nil {
			return services.DestinationNone, err
		}
		return dest, h.report(dest, email)
	}
	return h.promptLoop(ctx, flow, email)
}

func (h *VerifyHandler) submitOnce(ctx context.Context, flow *services.VerificationFlow, code string) (services.Destination, error) {
	if dest := flow.Poll(ctx); dest != services.DestinationNone {
		return dest, h.report(dest, flow.Snapshot().Email)
	}

	if err := flow.SubmitCodeValue(ctx, code); err != nil {
		return services.DestinationNone, withMessage(err, flow.Snapshot().Error)
	}
	return services.DestinationDashboard, h.report(services.DestinationDashboard, flow.Snapshot().Email)
}

// promptLoop is the line-oriented screen used without a terminal.
// The status is polled before every prompt in place of the timers.
func (h *VerifyHandler) promptLoop(ctx context.Context, flow *services.VerificationFlow, email string) (services.Destination, error) {
	h.console.Notef("Enter the 6-digit code sent to %s\n", email)
	for {
		if dest := flow.Poll(ctx); dest != services.DestinationNone {
			return dest, h.report(dest, email)
		}
		h.printStatus(flow.Snapshot())

		answer, err := h.console.Prompt("Code (or 'resend'): ")
		if err != nil || answer == "" {
			h.console.Notef("Verification not completed.\n")
			return services.DestinationNone, nil
		}

		if strings.EqualFold(answer, "resend") {
			if err := flow.Resend(ctx); err != nil {
				h.console.Notef("%s\n", flow.Snapshot().Error)
				continue
			}
			h.console.Notef("A new code has been sent to %s\n", email)
			continue
		}

		if err := flow.SubmitCodeValue(ctx, answer); err != nil {
			if errors.Is(err, context.Canceled) {
				return services.DestinationNone, err
			}
			log.Debug().Err(err).Msg("Code submission failed")
			h.console.Notef("%s\n", flow.Snapshot().Error)
			continue
		}
		return services.DestinationDashboard, h.report(services.DestinationDashboard, email)
	}
}

func (h *VerifyHandler) printStatus(state services.VerificationState) {
	if state.DeletionPending() {
		h.console.Notef("Your account will be deleted in %s if not verified.\n", services.FormatHours(state.DeletionRemaining))
	}
	if state.CodeCountdownVisible() {
		h.console.Notef("Code expires in %s\n", services.FormatClock(state.CodeRemaining))
	}
	if state.CodeExpired {
		h.console.Notef("Your verification code has expired. Type 'resend' for a new one.\n")
	}
}

func (h *VerifyHandler) report(dest services.Destination, email string) error {
	switch dest {
	case services.DestinationDashboard:
		h.console.Printf("Email %s verified.\n", email)
	case services.DestinationHome:
		return withMessage(errors.New("verification status not found"), "No pending verification for "+email+".")
	default:
		h.console.Notef("Verification not completed.\n")
	}
	return nil
}
