package handlers

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
)

// TripHandler handles the trip commands
type TripHandler struct {
	tripRepo       *repository.TripRepository
	connectionRepo *repository.ConnectionRepository
	sessions       *services.SessionManager
	console        *Console
}

// NewTripHandler creates a new trip handler
func NewTripHandler(
	tripRepo *repository.TripRepository,
	connectionRepo *repository.ConnectionRepository,
	sessions *services.SessionManager,
	console *Console,
) *TripHandler {
	return &TripHandler{
		tripRepo:       tripRepo,
		connectionRepo: connectionRepo,
		sessions:       sessions,
		console:        console,
	}
}

// Command returns the trip command tree.
func (h *TripHandler) Command() *Command {
	return &Command{
		Name:    "trip",
		Summary: "Show and manage a trip",
		Subcommands: []*Command{
			h.showCommand(),
			h.inviteCommand(),
			h.acceptCommand(),
			h.deleteCommand(),
			h.removeCommand(),
		},
	}
}

// controller loads the trip as seen by the logged-in user.
func (h *TripHandler) controller(ctx context.Context, tripID string) (*services.TripController, error) {
	user, err := h.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	ctl := services.NewTripController(h.tripRepo, h.connectionRepo, tripID, user.ID)
	if err := ctl.Load(ctx); err != nil {
		return nil, withMessage(err, ctl.Error())
	}
	return ctl, nil
}

func (h *TripHandler) showCommand() *Command {
	var asJSON bool
	return &Command{
		Name:    "show",
		Summary: "Show a trip with its participants",
		Usage:   "synvoy trip show <trip-id> [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flagSet.BoolVar(&asJSON, "json", false, "print the trip as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 1, "<trip-id>"); err != nil {
				return err
			}
			ctl, err := h.controller(ctx, args[0])
			if err != nil {
				return err
			}
			view := ctl.View()
			if asJSON {
				return h.console.writeJSON(view.Trip)
			}
			h.printTrip(view)
			return nil
		},
	}
}

func (h *TripHandler) printTrip(view services.TripView) {
	trip := view.Trip
	h.console.Printf("%s [%s]\n", trip.Title, trip.Status)
	if trip.Description != nil && *trip.Description != "" {
		h.console.Printf("%s\n", *trip.Description)
	}
	if trip.StartDate != nil || trip.EndDate != nil {
		h.console.Printf("Dates: %s to %s\n", formatDate(trip.StartDate), formatDate(trip.EndDate))
	}
	if trip.Budget != nil {
		h.console.Printf("Budget: %s\n", trip.Budget)
	}

	printRows := func(title string, rows []services.ParticipantRow) {
		h.console.Printf("\n%s (%d)\n", title, len(rows))
		tw := tabwriter.NewWriter(h.console.Out, 2, 0, 3, ' ', 0)
		for _, row := range rows {
			var actions []string
			if row.CanAccept {
				actions = append(actions, "accept")
			}
			if row.CanRemove {
				actions = append(actions, "remove")
			}
			if row.CanMessage {
				actions = append(actions, "message")
			}
			role := ""
			if row.Participant.IsCreator() {
				role = "creator"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", row.Participant.ID, participantName(row.Participant), role, strings.Join(actions, ", "))
		}
		tw.Flush()
	}
	printRows("Participants", view.Accepted)
	if len(view.Pending) > 0 {
		printRows("Pending invitations", view.Pending)
	}

	switch {
	case view.PendingInvitation:
		h.console.Printf("\nYou have been invited. Run: synvoy trip accept %s\n", trip.ID)
	case view.CanOpenGroupChat:
		h.console.Printf("\nGroup chat is open to you.\n")
	}
}

func participantName(p models.Participant) string {
	if name := p.Name(); name != "" {
		return name
	}
	return p.UserID
}

func formatDate(ts *models.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "?"
	}
	return ts.Format("2006-01-02")
}

func (h *TripHandler) inviteCommand() *Command {
	return &Command{
		Name:    "invite",
		Summary: "List invitable connections, or invite them by user id",
		Usage:   "synvoy trip invite <trip-id> [user-id...]",
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("%w: expected <trip-id> [user-id...]", ErrUsage)
			}
			ctl, err := h.controller(ctx, args[0])
			if err != nil {
				return err
			}
			if !ctl.View().CanInvite {
				return services.ErrNotPermitted
			}

			if len(args) == 1 {
				return h.listCandidates(ctx, ctl)
			}
			if err := ctl.Invite(ctx, args[1:]); err != nil {
				return withMessage(err, ctl.Error())
			}
			h.console.Printf("Invited %d user(s)\n", len(args)-1)
			return nil
		},
	}
}

func (h *TripHandler) listCandidates(ctx context.Context, ctl *services.TripController) error {
	if err := ctl.OpenInvite(ctx); err != nil {
		return withMessage(err, ctl.Error())
	}
	defer ctl.CloseInvite()

	candidates := ctl.State().Invite.Candidates
	if len(candidates) == 0 {
		h.console.Notef("No connections available to invite.\n")
		return nil
	}

	tw := tabwriter.NewWriter(h.console.Out, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "USER ID\tNAME\tEMAIL\n")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.UserID, c.User.DisplayName(), c.User.Email)
	}
	return tw.Flush()
}

func (h *TripHandler) acceptCommand() *Command {
	return &Command{
		Name:    "accept",
		Summary: "Accept your pending invitation to a trip",
		Usage:   "synvoy trip accept <trip-id>",
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 1, "<trip-id>"); err != nil {
				return err
			}
			ctl, err := h.controller(ctx, args[0])
			if err != nil {
				return err
			}

			view := ctl.View()
			if !view.PendingInvitation {
				h.console.Notef("You have no pending invitation to this trip.\n")
				return nil
			}
			if err := ctl.AcceptInvitation(ctx, view.CurrentParticipant.ID); err != nil {
				return withMessage(err, ctl.Error())
			}
			h.console.Printf("Joined %s\n", view.Trip.Title)
			return nil
		},
	}
}

func (h *TripHandler) deleteCommand() *Command {
	var yes bool
	return &Command{
		Name:    "delete",
		Summary: "Delete a trip you created",
		Usage:   "synvoy trip delete <trip-id> [--yes]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			flagSet.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 1, "<trip-id>"); err != nil {
				return err
			}
			ctl, err := h.controller(ctx, args[0])
			if err != nil {
				return err
			}

			dest, err := ctl.DeleteTrip(ctx, h.console.Confirmer(yes))
			if err != nil {
				return withMessage(err, ctl.Error())
			}
			if dest == services.DestinationBack {
				h.console.Printf("Trip deleted\n")
			}
			return nil
		},
	}
}

func (h *TripHandler) removeCommand() *Command {
	var yes bool
	return &Command{
		Name:    "remove",
		Summary: "Remove a participant from a trip you created",
		Usage:   "synvoy trip remove <trip-id> <participant-id> [--yes]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("remove", pflag.ContinueOnError)
			flagSet.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 2, "<trip-id> <participant-id>"); err != nil {
				return err
			}
			ctl, err := h.controller(ctx, args[0])
			if err != nil {
				return err
			}

			before := len(ctl.View().Trip.Participants)
			if err := ctl.RemoveParticipant(ctx, args[1], h.console.Confirmer(yes)); err != nil {
				return withMessage(err, ctl.Error())
			}
			if len(ctl.View().Trip.Participants) < before {
				h.console.Printf("Participant removed\n")
			}
			return nil
		},
	}
}
