package models

import "strings"

// User statuses reported by the API.
const (
	UserStatusActive          = "active"
	UserStatusPendingDeletion = "pending_deletion"
)

// User represents a Synvoy account as returned by the API
type User struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username,omitempty"`
	Email               string     `json:"email,omitempty"`
	FirstName           string     `json:"first_name,omitempty"`
	LastName            string     `json:"last_name,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	IsVerified          bool       `json:"is_verified"`
	Status              string     `json:"status,omitempty"`
	DeletedAt           *Timestamp `json:"deleted_at,omitempty"`
	DeletionRequestedAt *Timestamp `json:"deletion_requested_at,omitempty"`
	CreatedAt           *Timestamp `json:"created_at,omitempty"`
	UpdatedAt           *Timestamp `json:"updated_at,omitempty"`
}

// DisplayName returns "First Last", falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.Username
}

// HasDisplayName reports whether the user carries any identifying name field.
func (u *User) HasDisplayName() bool {
	return u != nil && (u.FirstName != "" || u.LastName != "" || u.Username != "")
}

// IsDeleted reports a soft-deleted account.
func (u *User) IsDeleted() bool {
	return u != nil && u.DeletedAt != nil
}

// IsPendingDeletion reports an account scheduled for deletion.
func (u *User) IsPendingDeletion() bool {
	return u != nil && (u.DeletionRequestedAt != nil || u.Status == UserStatusPendingDeletion)
}

// AuthResponse is the body returned by login and register
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	User        *User  `json:"user"`
}

// LoginRequest is the body sent to the login endpoint
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body sent to the register endpoint
type RegisterRequest struct {
	Username   string  `json:"username" validate:"required,min=3,max=50"`
	FirstName  string  `json:"first_name" validate:"required,max=100"`
	LastName   string  `json:"last_name" validate:"required,max=100"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	TesterCode string  `json:"tester_code" validate:"required"`
}
