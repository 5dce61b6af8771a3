package handlers

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"synvoy-client/internal/models"
	"synvoy-client/internal/services"
)

// AuthHandler handles login, registration and the session commands
type AuthHandler struct {
	sessions *services.SessionManager
	verify   *VerifyHandler
	console  *Console
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *services.SessionManager, verify *VerifyHandler, console *Console) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		verify:   verify,
		console:  console,
	}
}

// Commands returns login, register, logout and whoami.
func (h *AuthHandler) Commands() []*Command {
	return []*Command{h.loginCommand(), h.registerCommand(), h.logoutCommand(), h.whoamiCommand()}
}

func (h *AuthHandler) loginCommand() *Command {
	var email string
	return &Command{
		Name:    "login",
		Summary: "Log in and save the session",
		Usage:   "synvoy login [--email address]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flagSet.StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 0, "no arguments"); err != nil {
				return err
			}
			return h.Login(ctx, email)
		},
	}
}

// Login prompts for missing credentials and signs in. An unverified account
// is sent through verification and, once verified, logged in again.
func (h *AuthHandler) Login(ctx context.Context, email string) error {
	var err error
	if email == "" {
		if email, err = h.console.Prompt("Email: "); err != nil {
			return err
		}
	}
	password, err := h.console.Password("Password: ")
	if err != nil {
		return err
	}

	result, err := h.sessions.Login(ctx, email, password)
	if errors.Is(err, services.ErrEmailNotVerified) {
		h.console.Notef("Please verify your email address to continue.\n")
		if !h.console.Interactive() {
			h.console.Notef("Run: synvoy verify --email %s --code <code>\n", result.User.Email)
			return nil
		}

		dest, err := h.verify.Verify(ctx, result.User.Email, "")
		if err != nil || dest != services.DestinationDashboard {
			return err
		}
		if result, err = h.sessions.Login(ctx, email, password); err != nil {
			return withMessage(err, "Login failed after verification")
		}
	} else if err != nil {
		return err
	}

	h.console.Printf("Logged in as %s\n", result.User.DisplayName())
	return nil
}

func (h *AuthHandler) registerCommand() *Command {
	var req models.RegisterRequest
	var phone string
	return &Command{
		Name:    "register",
		Summary: "Create an account",
		Usage:   "synvoy register --username name --first-name first --last-name last --email address --tester-code code [--phone number]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("register", pflag.ContinueOnError)
			flagSet.StringVar(&req.Username, "username", "", "public username (3-50 characters)")
			flagSet.StringVar(&req.FirstName, "first-name", "", "first name")
			flagSet.StringVar(&req.LastName, "last-name", "", "last name")
			flagSet.StringVarP(&req.Email, "email", "e", "", "account email")
			flagSet.StringVar(&phone, "phone", "", "phone number (optional)")
			flagSet.StringVar(&req.TesterCode, "tester-code", "", "beta tester invitation code")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 0, "no arguments"); err != nil {
				return err
			}
			req.Phone = nil
			if phone != "" {
				req.Phone = &phone
			}
			return h.Register(ctx, req)
		},
	}
}

// Register prompts for the password twice, creates the account and moves on
// to email verification.
func (h *AuthHandler) Register(ctx context.Context, req models.RegisterRequest) error {
	password, err := h.console.Password("Password: ")
	if err != nil {
		return err
	}
	confirmation, err := h.console.Password("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirmation {
		return withMessage(errors.New("password mismatch"), "Passwords do not match")
	}
	req.Password = password

	result, err := h.sessions.Register(ctx, req)
	if err != nil {
		return err
	}

	log.Info().Str("user_id", result.User.ID).Msg("Account created")
	h.console.Printf("Account created for %s\n", result.User.Email)

	if result.Next != services.DestinationVerifyEmail {
		return nil
	}
	if !h.console.Interactive() {
		h.console.Notef("We sent a verification code to %s.\nRun: synvoy verify --code <code>\n", result.User.Email)
		return nil
	}
	_, err = h.verify.Verify(ctx, result.User.Email, "")
	return err
}

func (h *AuthHandler) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Log out and forget the saved session",
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 0, "no arguments"); err != nil {
				return err
			}
			h.sessions.Logout(ctx)
			h.console.Printf("Logged out\n")
			return nil
		},
	}
}

func (h *AuthHandler) whoamiCommand() *Command {
	var asJSON bool
	return &Command{
		Name:    "whoami",
		Summary: "Show the logged-in user",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("whoami", pflag.ContinueOnError)
			flagSet.BoolVar(&asJSON, "json", false, "print the profile as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			user, err := h.sessions.RequireUser()
			if err != nil {
				return err
			}
			if asJSON {
				return h.console.writeJSON(user)
			}

			verified := "not verified"
			if user.IsVerified {
				verified = "verified"
			}
			h.console.Printf("%s (@%s)\n", user.DisplayName(), user.Username)
			h.console.Printf("%s, %s\n", user.Email, verified)
			if user.IsPendingDeletion() {
				h.console.Printf("Account scheduled for deletion\n")
			}
			return nil
		},
	}
}
