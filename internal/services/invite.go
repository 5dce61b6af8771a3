package services

import "synvoy-client/internal/models"

// Invitee is a connection eligible for a trip invitation
type Invitee struct {
	ConnectionID string
	UserID       string
	User         *models.User
}

// EligibleInvitees filters connections down to the users that can be invited to trip.
// A connection is dropped when its other user has no id or display name, is
// soft-deleted or pending deletion, or already participates in the trip.
// A nil trip excludes no one.
func EligibleInvitees(connections []models.Connection, viewerID string, trip *models.Trip) []Invitee {
	invitees := make([]Invitee, 0, len(connections))
	for _, conn := range connections {
		other := conn.OtherUser(viewerID)
		switch {
		case other.ID == "":
			continue
		case other.IsDeleted(), other.IsPendingDeletion():
			continue
		case !other.HasDisplayName():
			continue
		case trip.HasParticipant(other.ID):
			continue
		}
		invitees = append(invitees, Invitee{
			ConnectionID: conn.ID,
			UserID:       other.ID,
			User:         other,
		})
	}
	return invitees
}
