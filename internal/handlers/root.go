package handlers

import (
	"io"

	"synvoy-client/internal/clock"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
)

// Deps are the collaborators shared by every command
type Deps struct {
	AuthRepo       *repository.AuthRepository
	TripRepo       *repository.TripRepository
	ConnectionRepo *repository.ConnectionRepository
	ContactRepo    *repository.ContactRepository
	Sessions       *services.SessionManager
	Clock          clock.Clock
	Verification   services.VerificationConfig
	Console        *Console
	Stdin          io.Reader
	VerifyUI       VerifyUI
}

// NewRoot builds the synvoy command tree.
func NewRoot(deps Deps) *Command {
	verifyHandler := NewVerifyHandler(deps.AuthRepo, deps.Sessions, deps.Clock, deps.Verification, deps.Console, deps.VerifyUI)
	authHandler := NewAuthHandler(deps.Sessions, verifyHandler, deps.Console)
	tripHandler := NewTripHandler(deps.TripRepo, deps.ConnectionRepo, deps.Sessions, deps.Console)
	connectionHandler := NewConnectionHandler(deps.ConnectionRepo, deps.Sessions, deps.Console)
	contactHandler := NewContactHandler(deps.ContactRepo, deps.Sessions, deps.Clock, deps.Console, deps.Stdin)

	subcommands := authHandler.Commands()
	subcommands = append(subcommands,
		verifyHandler.Command(),
		tripHandler.Command(),
		connectionHandler.Command(),
		contactHandler.Command(),
	)

	return &Command{
		Name:        "synvoy",
		Summary:     "Synvoy travel planning from the terminal",
		Subcommands: subcommands,
	}
}
