package repository

import (
	"context"
	"net/http"

	"synvoy-client/internal/models"
)

// ContactRepository submits contact forms
type ContactRepository struct {
	client *Client
}

// NewContactRepository creates a new contact repository
func NewContactRepository(client *Client) *ContactRepository {
	return &ContactRepository{client: client}
}

// SubmitContact posts the contact form
func (r *ContactRepository) SubmitContact(ctx context.Context, form models.ContactForm) (*models.ContactResponse, error) {
	var resp models.ContactResponse
	if err := r.client.do(ctx, http.MethodPost, "/contact/", nil, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
