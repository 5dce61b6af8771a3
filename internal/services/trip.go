package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"

	"github.com/rs/zerolog/log"
)

// ParticipantRow is a participant with the actions the viewer may take on it
type ParticipantRow struct {
	Participant models.Participant
	CanAccept   bool
	CanRemove   bool
	CanMessage  bool
}

// TripView is derived from a trip snapshot on every call; nothing in it is cached.
type TripView struct {
	Trip               *models.Trip
	IsCreator          bool
	CurrentParticipant *models.Participant
	Accepted           []ParticipantRow
	Pending            []ParticipantRow
	CanDelete          bool
	CanInvite          bool
	CanOpenGroupChat   bool
	PendingInvitation  bool
	StatusTone         string
}

// InviteView is the state of the invite modal
type InviteView struct {
	Open       bool
	Loading    bool
	Inviting   bool
	Candidates []Invitee
	Selected   []string
}

// TripState is everything a trip detail screen renders
type TripState struct {
	View    TripView
	Invite  InviteView
	Loading bool
	Error   string
}

// BuildTripView computes the viewer-specific view of trip.
func BuildTripView(trip *models.Trip, viewerID string) TripView {
	view := TripView{Trip: trip}
	if trip == nil {
		return view
	}

	view.IsCreator = trip.UserID == viewerID
	view.CanDelete = view.IsCreator
	view.CanInvite = view.IsCreator
	view.StatusTone = statusTone(trip.Status)

	for i := range trip.Participants {
		p := trip.Participants[i]
		if p.UserID == viewerID && view.CurrentParticipant == nil {
			current := p
			view.CurrentParticipant = &current
		}

		row := ParticipantRow{
			Participant: p,
			CanRemove:   view.IsCreator && !p.IsCreator(),
		}
		switch p.Status {
		case models.ParticipantAccepted:
			row.CanMessage = p.UserID != viewerID
			view.Accepted = append(view.Accepted, row)
		case models.ParticipantPending:
			row.CanAccept = p.UserID == viewerID
			view.Pending = append(view.Pending, row)
		}
	}

	if view.CurrentParticipant != nil {
		view.CanOpenGroupChat = view.CurrentParticipant.Status == models.ParticipantAccepted
		view.PendingInvitation = view.CurrentParticipant.Status == models.ParticipantPending
	}
	return view
}

func statusTone(status string) string {
	switch status {
	case models.TripStatusActive:
		return "success"
	case models.TripStatusCompleted:
		return "muted"
	default:
		return "primary"
	}
}

// TripController drives the trip detail screen and its invite modal
type TripController struct {
	tripRepo       *repository.TripRepository
	connectionRepo *repository.ConnectionRepository
	tripID         string
	viewerID       string

	mu      sync.Mutex
	trip    *models.Trip
	loading bool
	errMsg  string
	action  string
	invite  InviteView
}

// NewTripController creates a controller for tripID as seen by viewerID
func NewTripController(
	tripRepo *repository.TripRepository,
	connectionRepo *repository.ConnectionRepository,
	tripID, viewerID string,
) *TripController {
	return &TripController{
		tripRepo:       tripRepo,
		connectionRepo: connectionRepo,
		tripID:         tripID,
		viewerID:       viewerID,
	}
}

// Load fetches the trip. A failure leaves the previous snapshot in place.
func (c *TripController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	trip, err := c.tripRepo.GetTrip(ctx, c.tripID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		log.Error().Err(err).Str("trip_id", c.tripID).Msg("Failed to fetch trip")
		c.errMsg = repository.Message(err, "Failed to fetch trip")
		return err
	}
	c.trip = trip
	return nil
}

// State returns the current render state.
func (c *TripController) State() TripState {
	c.mu.Lock()
	defer c.mu.Unlock()

	invite := c.invite
	invite.Candidates = slices.Clone(c.invite.Candidates)
	invite.Selected = slices.Clone(c.invite.Selected)
	return TripState{
		View:    BuildTripView(c.trip, c.viewerID),
		Invite:  invite,
		Loading: c.loading,
		Error:   c.errMsg,
	}
}

// View returns the viewer-specific trip view.
func (c *TripController) View() TripView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildTripView(c.trip, c.viewerID)
}

// Error returns the visible error string.
func (c *TripController) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// OpenInvite opens the invite modal and loads the eligible connections.
// It does not depend on the trip having loaded.
func (c *TripController) OpenInvite(ctx context.Context) error {
	c.mu.Lock()
	c.invite.Open = true
	c.invite.Loading = true
	trip := c.trip
	c.mu.Unlock()

	connections, err := c.connectionRepo.GetConnections(ctx, models.ConnectionAccepted)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.invite.Loading = false
	if err != nil {
		log.Error().Err(err).Str("trip_id", c.tripID).Msg("Failed to load connections")
		c.errMsg = repository.Message(err, "Failed to load connections")
		c.invite.Candidates = nil
		return err
	}
	c.invite.Candidates = EligibleInvitees(connections, c.viewerID, trip)
	return nil
}

// ToggleInvitee selects or deselects a candidate.
func (c *TripController) ToggleInvitee(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := slices.Index(c.invite.Selected, userID); i >= 0 {
		c.invite.Selected = slices.Delete(c.invite.Selected, i, i+1)
		return
	}
	c.invite.Selected = append(c.invite.Selected, userID)
}

// Selected returns the user ids picked in the invite modal.
func (c *TripController) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.invite.Selected)
}

// CloseInvite closes the modal and drops the selection.
func (c *TripController) CloseInvite() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invite.Open = false
	c.invite.Selected = nil
}

// InviteSelected invites the current selection.
func (c *TripController) InviteSelected(ctx context.Context) error {
	c.mu.Lock()
	selected := slices.Clone(c.invite.Selected)
	c.mu.Unlock()
	return c.Invite(ctx, selected)
}

// Invite submits an invitation batch. An empty batch is a no-op. On success
// the trip is refetched and the modal closed; on failure the modal stays open.
func (c *TripController) Invite(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	if err := c.begin("invite"); err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	c.invite.Inviting = true
	c.errMsg = ""
	c.mu.Unlock()

	err := c.tripRepo.InviteUsers(ctx, c.tripID, userIDs)

	c.mu.Lock()
	c.invite.Inviting = false
	if err != nil {
		c.errMsg = repository.Message(err, "Failed to invite users")
		c.mu.Unlock()
		log.Error().Err(err).Str("trip_id", c.tripID).Msg("Failed to invite users")
		return err
	}
	c.mu.Unlock()

	log.Info().Str("trip_id", c.tripID).Int("count", len(userIDs)).Msg("Users invited")

	_ = c.Load(ctx)
	c.CloseInvite()
	return nil
}

// AcceptInvitation accepts the viewer's own pending invitation.
func (c *TripController) AcceptInvitation(ctx context.Context, participantID string) error {
	c.mu.Lock()
	p, ok := c.trip.FindParticipant(participantID)
	c.mu.Unlock()
	if !ok || p.UserID != c.viewerID || p.Status != models.ParticipantPending {
		return ErrNotPermitted
	}

	if err := c.begin("accept"); err != nil {
		return err
	}
	defer c.end()

	if err := c.tripRepo.UpdateParticipantStatus(ctx, c.tripID, participantID, models.ParticipantAccepted); err != nil {
		log.Error().Err(err).Str("trip_id", c.tripID).Str("participant_id", participantID).Msg("Failed to accept invitation")
		c.setError(repository.Message(err, "Failed to accept invitation"))
		return err
	}

	_ = c.Load(ctx)
	return nil
}

// DeleteTrip deletes the trip after confirmation. Creator only. A declined
// prompt is a no-op; a successful delete navigates back.
func (c *TripController) DeleteTrip(ctx context.Context, confirm Confirmer) (Destination, error) {
	c.mu.Lock()
	isCreator := c.trip != nil && c.trip.UserID == c.viewerID
	c.mu.Unlock()
	if !isCreator {
		return DestinationNone, ErrNotPermitted
	}

	if !confirmed(confirm, "Are you sure you want to delete this trip? This action cannot be undone.") {
		return DestinationNone, nil
	}

	if err := c.begin("delete"); err != nil {
		return DestinationNone, err
	}
	defer c.end()

	if err := c.tripRepo.DeleteTrip(ctx, c.tripID); err != nil {
		log.Error().Err(err).Str("trip_id", c.tripID).Msg("Failed to delete trip")
		c.setError(repository.Message(err, "Failed to delete trip"))
		return DestinationNone, err
	}

	log.Info().Str("trip_id", c.tripID).Msg("Trip deleted")
	return DestinationBack, nil
}

// RemoveParticipant removes a non-creator participant after confirmation. Creator only.
func (c *TripController) RemoveParticipant(ctx context.Context, participantID string, confirm Confirmer) error {
	c.mu.Lock()
	isCreator := c.trip != nil && c.trip.UserID == c.viewerID
	p, ok := c.trip.FindParticipant(participantID)
	c.mu.Unlock()

	if !isCreator || !ok {
		return ErrNotPermitted
	}
	if p.IsCreator() {
		return ErrCreatorRemoval
	}

	prompt := fmt.Sprintf("Are you sure you want to remove %s from this trip?", p.Name())
	if !confirmed(confirm, prompt) {
		return nil
	}

	if err := c.begin("remove"); err != nil {
		return err
	}
	defer c.end()

	if err := c.tripRepo.RemoveParticipant(ctx, c.tripID, participantID); err != nil {
		log.Error().Err(err).Str("trip_id", c.tripID).Str("participant_id", participantID).Msg("Failed to remove participant")
		c.setError(repository.Message(err, "Failed to remove participant"))
		return err
	}

	log.Info().Str("trip_id", c.tripID).Str("participant_id", participantID).Msg("Participant removed")
	_ = c.Load(ctx)
	return nil
}

// begin claims the controller's single mutation slot.
func (c *TripController) begin(action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.action != "" {
		return ErrBusy
	}
	c.action = action
	return nil
}

func (c *TripController) end() {
	c.mu.Lock()
	c.action = ""
	c.mu.Unlock()
}

func (c *TripController) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}
