package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"synvoy-client/internal/models"
)

// ConnectionRepository handles connection calls
type ConnectionRepository struct {
	client *Client
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(client *Client) *ConnectionRepository {
	return &ConnectionRepository{client: client}
}

// GetConnections lists the caller's connections. An empty status lists all of them.
func (r *ConnectionRepository) GetConnections(ctx context.Context, status string) ([]models.Connection, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}

	var connections []models.Connection
	if err := r.client.do(ctx, http.MethodGet, "/connections", query, nil, &connections); err != nil {
		return nil, err
	}
	for _, c := range connections {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: connection without id", ErrInvalidResponse)
		}
	}
	return connections, nil
}

// UpdateConnection sets a connection's status
func (r *ConnectionRepository) UpdateConnection(ctx context.Context, connectionID, status string) error {
	return r.client.do(ctx, http.MethodPut, "/connections/"+escape(connectionID), nil, models.StatusRequest{Status: status}, nil)
}

// DeleteConnection deletes a connection
func (r *ConnectionRepository) DeleteConnection(ctx context.Context, connectionID string) error {
	return r.client.do(ctx, http.MethodDelete, "/connections/"+escape(connectionID), nil, nil, nil)
}
