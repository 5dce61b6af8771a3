package repository

import (
	"context"
	"fmt"
	"net/http"

	"synvoy-client/internal/models"
)

// TripRepository handles trip and participant calls
type TripRepository struct {
	client *Client
}

// NewTripRepository creates a new trip repository
func NewTripRepository(client *Client) *TripRepository {
	return &TripRepository{client: client}
}

// GetTrip retrieves a trip with its participants
func (r *TripRepository) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	var trip models.Trip
	if err := r.client.do(ctx, http.MethodGet, "/trips/"+escape(tripID), nil, nil, &trip); err != nil {
		return nil, err
	}
	if trip.ID == "" {
		return nil, fmt.Errorf("%w: trip without id", ErrInvalidResponse)
	}
	return &trip, nil
}

// InviteUsers invites a batch of users to a trip
func (r *TripRepository) InviteUsers(ctx context.Context, tripID string, userIDs []string) error {
	path := fmt.Sprintf("/trips/%s/invite", escape(tripID))
	return r.client.do(ctx, http.MethodPost, path, nil, models.InviteRequest{UserIDs: userIDs}, nil)
}

// UpdateParticipantStatus changes a participant's invitation status
func (r *TripRepository) UpdateParticipantStatus(ctx context.Context, tripID, participantID, status string) error {
	path := fmt.Sprintf("/trips/%s/participants/%s", escape(tripID), escape(participantID))
	return r.client.do(ctx, http.MethodPut, path, nil, models.StatusRequest{Status: status}, nil)
}

// DeleteTrip deletes a trip
func (r *TripRepository) DeleteTrip(ctx context.Context, tripID string) error {
	return r.client.do(ctx, http.MethodDelete, "/trips/"+escape(tripID), nil, nil, nil)
}

// RemoveParticipant removes a participant from a trip
func (r *TripRepository) RemoveParticipant(ctx context.Context, tripID, participantID string) error {
	path := fmt.Sprintf("/trips/%s/participants/%s", escape(tripID), escape(participantID))
	return r.client.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
