package services

import "errors"

var (
	// ErrNotPermitted is returned when the viewer may not perform an action.
	// It is decided locally, before any request is sent.
	ErrNotPermitted = errors.New("action not permitted")
	// ErrCreatorRemoval is returned when removing the trip creator is attempted.
	ErrCreatorRemoval = errors.New("the trip creator cannot be removed")
	// ErrBusy is returned when a mutating request is already in flight.
	ErrBusy = errors.New("another request is already in progress")
	// ErrEmailNotVerified accompanies a successful login of an unverified account.
	ErrEmailNotVerified = errors.New("email_not_verified")
	// ErrIncompleteCode is returned for verification codes that are not 6 characters long.
	ErrIncompleteCode = errors.New("verification code must be 6 characters")
	// ErrNotAuthenticated is returned when a controller needs a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Destination tells the caller where to navigate after an action.
type Destination string

const (
	DestinationNone        Destination = ""
	DestinationHome        Destination = "home"
	DestinationDashboard   Destination = "dashboard"
	DestinationVerifyEmail Destination = "verify-email"
	DestinationBack        Destination = "back"
)

// Confirmer asks the user to confirm a destructive action. A nil Confirmer declines.
type Confirmer func(prompt string) bool

// AlwaysConfirm accepts every prompt.
func AlwaysConfirm(string) bool { return true }

func confirmed(confirm Confirmer, prompt string) bool {
	return confirm != nil && confirm(prompt)
}
