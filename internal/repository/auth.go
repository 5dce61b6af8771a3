package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"synvoy-client/internal/models"
)

// AuthRepository handles authentication and email verification calls
type AuthRepository struct {
	client *Client
}

// NewAuthRepository creates a new auth repository
func NewAuthRepository(client *Client) *AuthRepository {
	return &AuthRepository{client: client}
}

// Login exchanges credentials for a token and profile
func (r *AuthRepository) Login(ctx context.Context, identifier, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.LoginRequest{Email: identifier, Password: password}
	if err := r.client.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	if err := validateAuthResponse(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its first token
func (r *AuthRepository) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := r.client.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	if err := validateAuthResponse(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the current token server-side
func (r *AuthRepository) Logout(ctx context.Context) error {
	return r.client.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// GetProfile returns the authenticated user
func (r *AuthRepository) GetProfile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := r.client.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile without id", ErrInvalidResponse)
	}
	return &user, nil
}

// GetVerificationStatus returns the verification state for email
func (r *AuthRepository) GetVerificationStatus(ctx context.Context, email string) (*models.VerificationStatus, error) {
	var status models.VerificationStatus
	query := url.Values{"email": {email}}
	if err := r.client.do(ctx, http.MethodGet, "/auth/verification-status", query, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// VerifyEmail submits a verification code
func (r *AuthRepository) VerifyEmail(ctx context.Context, email, code string) error {
	req := models.VerifyEmailRequest{Email: email, Code: code}
	return r.client.do(ctx, http.MethodPost, "/auth/verify-email", nil, req, nil)
}

// ResendVerification asks the server to send a new code
func (r *AuthRepository) ResendVerification(ctx context.Context, email string) error {
	return r.client.do(ctx, http.MethodPost, "/auth/resend-verification", nil, models.EmailRequest{Email: email}, nil)
}

func validateAuthResponse(resp *models.AuthResponse) error {
	if resp.AccessToken == "" || resp.User == nil || resp.User.ID == "" {
		return fmt.Errorf("%w: missing access_token or user", ErrInvalidResponse)
	}
	return nil
}
