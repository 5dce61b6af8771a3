package apitest

import (
	"net/http"

	"synvoy-client/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// tripLocked returns a copy of the trip with participant users embedded.
func (s *Server) tripLocked(trip *models.Trip) models.Trip {
	out := *trip
	out.Participants = make([]models.Participant, len(trip.Participants))
	for i, p := range trip.Participants {
		p.User = s.userLocked(p.UserID)
		out.Participants[i] = p
	}
	return out
}

func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	tripID := chi.URLParam(r, "trip_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[tripID]
	if !ok {
		respondError(w, "Trip not found", http.StatusNotFound)
		return
	}
	if trip.UserID != userID && !trip.HasParticipant(userID) {
		respondError(w, "Not authorized to view this trip", http.StatusForbidden)
		return
	}
	respondJSON(w, s.tripLocked(trip), http.StatusOK)
}

func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	tripID := chi.URLParam(r, "trip_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[tripID]
	if !ok {
		respondError(w, "Trip not found", http.StatusNotFound)
		return
	}
	if trip.UserID != userID {
		respondError(w, "Only the trip creator can delete this trip", http.StatusForbidden)
		return
	}
	delete(s.trips, tripID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) inviteUsers(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	tripID := chi.URLParam(r, "trip_id")

	var req models.InviteRequest
	if err := decode(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[tripID]
	if !ok {
		respondError(w, "Trip not found", http.StatusNotFound)
		return
	}
	if trip.UserID != userID {
		respondError(w, "Only the trip creator can invite users", http.StatusForbidden)
		return
	}
	for _, id := range req.UserIDs {
		if _, exists := s.accounts[id]; !exists {
			respondError(w, "User not found", http.StatusNotFound)
			return
		}
	}

	for _, id := range req.UserIDs {
		if trip.HasParticipant(id) {
			continue
		}
		trip.Participants = append(trip.Participants, models.Participant{
			ID:     uuid.New().String(),
			TripID: tripID,
			UserID: id,
			Role:   models.RoleParticipant,
			Status: models.ParticipantPending,
		})
	}
	respondJSON(w, s.tripLocked(trip), http.StatusOK)
}

func (s *Server) updateParticipant(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	tripID := chi.URLParam(r, "trip_id")
	participantID := chi.URLParam(r, "participant_id")

	var req models.StatusRequest
	if err := decode(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[tripID]
	if !ok {
		respondError(w, "Trip not found", http.StatusNotFound)
		return
	}
	for i := range trip.Participants {
		p := &trip.Participants[i]
		if p.ID != participantID {
			continue
		}
		if p.UserID != userID {
			respondError(w, "Cannot update another user's invitation", http.StatusForbidden)
			return
		}
		p.Status = req.Status
		respondJSON(w, *p, http.StatusOK)
		return
	}
	respondError(w, "Participant not found", http.StatusNotFound)
}

func (s *Server) removeParticipant(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	tripID := chi.URLParam(r, "trip_id")
	participantID := chi.URLParam(r, "participant_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[tripID]
	if !ok {
		respondError(w, "Trip not found", http.StatusNotFound)
		return
	}
	if trip.UserID != userID {
		respondError(w, "Only the trip creator can remove participants", http.StatusForbidden)
		return
	}
	for i, p := range trip.Participants {
		if p.ID != participantID {
			continue
		}
		if p.IsCreator() {
			respondError(w, "Cannot remove the trip creator", http.StatusBadRequest)
			return
		}
		trip.Participants = append(trip.Participants[:i], trip.Participants[i+1:]...)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondError(w, "Participant not found", http.StatusNotFound)
}
