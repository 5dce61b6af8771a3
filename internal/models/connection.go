package models

// Connection statuses
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionBlocked  = "blocked"
)

// Connection is a directional link from the requester (UserID) to the receiver (ConnectedUserID)
type Connection struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ConnectedUserID string     `json:"connected_user_id"`
	Status          string     `json:"status"`
	User            *User      `json:"user,omitempty"`
	ConnectedUser   *User      `json:"connected_user,omitempty"`
	CreatedAt       *Timestamp `json:"created_at,omitempty"`
}

// OtherUserID returns the id of the counterpart of callerID.
func (c Connection) OtherUserID(callerID string) string {
	if c.UserID == callerID {
		return c.ConnectedUserID
	}
	return c.UserID
}

// OtherUser returns the counterpart of callerID. When the API did not embed the
// user record a stub carrying only the id is returned.
func (c Connection) OtherUser(callerID string) *User {
	other := c.User
	if c.UserID == callerID {
		other = c.ConnectedUser
	}
	if other == nil {
		return &User{ID: c.OtherUserID(callerID)}
	}
	if other.ID == "" {
		stub := *other
		stub.ID = c.OtherUserID(callerID)
		return &stub
	}
	return other
}

// IsReceiver reports whether callerID is the requested side of the connection.
func (c Connection) IsReceiver(callerID string) bool {
	return c.ConnectedUserID == callerID
}

// IsRequester reports whether callerID initiated the connection.
func (c Connection) IsRequester(callerID string) bool {
	return c.UserID == callerID
}
