package models

// Trip statuses
const (
	TripStatusPlanning  = "planning"
	TripStatusActive    = "active"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
)

// Participant roles and invitation statuses
const (
	RoleCreator     = "creator"
	RoleParticipant = "participant"

	ParticipantPending  = "pending"
	ParticipantAccepted = "accepted"
)

// Trip represents a trip with its ordered participants
type Trip struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Title        string        `json:"title"`
	Description  *string       `json:"description,omitempty"`
	StartDate    *Timestamp    `json:"start_date,omitempty"`
	EndDate      *Timestamp    `json:"end_date,omitempty"`
	Budget       *Amount       `json:"budget,omitempty"`
	Status       string        `json:"status"`
	Participants []Participant `json:"participants"`
	CreatedAt    *Timestamp    `json:"created_at,omitempty"`
	UpdatedAt    *Timestamp    `json:"updated_at,omitempty"`
}

// Participant binds a user to a trip with a role and invitation status
type Participant struct {
	ID     string `json:"id"`
	TripID string `json:"trip_id"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Status string `json:"status"`
	User   *User  `json:"user,omitempty"`
}

// IsCreator reports whether this participant created the trip.
func (p Participant) IsCreator() bool {
	return p.Role == RoleCreator
}

// Name returns the participant's display name.
func (p Participant) Name() string {
	return p.User.DisplayName()
}

// HasParticipant reports whether userID already appears among the participants.
func (t *Trip) HasParticipant(userID string) bool {
	if t == nil {
		return false
	}
	for _, p := range t.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// FindParticipant looks up a participant by id.
func (t *Trip) FindParticipant(participantID string) (Participant, bool) {
	if t == nil {
		return Participant{}, false
	}
	for _, p := range t.Participants {
		if p.ID == participantID {
			return p, true
		}
	}
	return Participant{}, false
}

// InviteRequest is the body of a trip invitation batch
type InviteRequest struct {
	UserIDs []string `json:"user_ids"`
}

// StatusRequest carries a status change for participants and connections
type StatusRequest struct {
	Status string `json:"status"`
}
