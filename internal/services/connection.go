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

// Filter selects which connections are listed
type Filter string

const (
	FilterAll      Filter = "all"
	FilterPending  Filter = models.ConnectionPending
	FilterAccepted Filter = models.ConnectionAccepted
	FilterBlocked  Filter = models.ConnectionBlocked
)

// Filters lists the tabs in display order.
var Filters = []Filter{FilterAll, FilterPending, FilterAccepted, FilterBlocked}

// ParseFilter validates a filter name.
func ParseFilter(name string) (Filter, error) {
	if name == "" {
		return FilterAll, nil
	}
	f := Filter(name)
	if !slices.Contains(Filters, f) {
		return "", fmt.Errorf("unknown connection filter %q", name)
	}
	return f, nil
}

// ConnectionActions lists what the viewer can do with a connection
type ConnectionActions struct {
	Accept      bool
	Block       bool
	RequestSent bool
	Message     bool
	Delete      bool
}

// ActionsFor derives the available actions from the connection status and the
// viewer's side of the pair.
func ActionsFor(conn models.Connection, viewerID string) ConnectionActions {
	actions := ConnectionActions{Delete: true}
	switch conn.Status {
	case models.ConnectionPending:
		actions.Accept = conn.IsReceiver(viewerID)
		actions.Block = conn.IsReceiver(viewerID)
		actions.RequestSent = conn.IsRequester(viewerID)
	case models.ConnectionAccepted:
		actions.Message = true
	}
	return actions
}

// ConnectionRow is a connection as displayed to the viewer
type ConnectionRow struct {
	Connection models.Connection
	OtherUser  *models.User
	Actions    ConnectionActions
	Updating   bool
}

// ConnectionsController drives the connections list
type ConnectionsController struct {
	connectionRepo *repository.ConnectionRepository
	viewerID       string

	mu       sync.Mutex
	filter   Filter
	items    []models.Connection
	loading  bool
	errMsg   string
	updating string
}

// NewConnectionsController creates a new connections controller
func NewConnectionsController(connectionRepo *repository.ConnectionRepository, viewerID string) *ConnectionsController {
	return &ConnectionsController{
		connectionRepo: connectionRepo,
		viewerID:       viewerID,
		filter:         FilterAll,
	}
}

// Load fetches the list for the current filter.
func (c *ConnectionsController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	filter := c.filter
	c.mu.Unlock()

	status := string(filter)
	if filter == FilterAll {
		status = ""
	}
	connections, err := c.connectionRepo.GetConnections(ctx, status)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		log.Error().Err(err).Str("filter", string(filter)).Msg("Failed to fetch connections")
		c.errMsg = repository.Message(err, "Failed to fetch connections")
		return err
	}
	c.items = connections
	return nil
}

// SetFilter switches the tab and refetches.
func (c *ConnectionsController) SetFilter(ctx context.Context, filter Filter) error {
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
	return c.Load(ctx)
}

// Filter returns the active tab.
func (c *ConnectionsController) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Error returns the visible error string.
func (c *ConnectionsController) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Loading reports whether a fetch is in flight.
func (c *ConnectionsController) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Updating returns the id of the connection being mutated, or "".
func (c *ConnectionsController) Updating() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updating
}

// Rows returns the list with the counterpart and actions resolved for the viewer.
func (c *ConnectionsController) Rows() []ConnectionRow {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]ConnectionRow, 0, len(c.items))
	for _, conn := range c.items {
		rows = append(rows, ConnectionRow{
			Connection: conn,
			OtherUser:  conn.OtherUser(c.viewerID),
			Actions:    ActionsFor(conn, c.viewerID),
			Updating:   c.updating == conn.ID,
		})
	}
	return rows
}

// UpdateStatus accepts or blocks a pending request addressed to the viewer.
func (c *ConnectionsController) UpdateStatus(ctx context.Context, connectionID, status string) error {
	if status != models.ConnectionAccepted && status != models.ConnectionBlocked {
		return fmt.Errorf("unsupported connection status %q", status)
	}

	conn, ok := c.find(connectionID)
	if !ok || conn.Status != models.ConnectionPending || !conn.IsReceiver(c.viewerID) {
		return ErrNotPermitted
	}

	if err := c.begin(connectionID); err != nil {
		return err
	}
	defer c.end()

	if err := c.connectionRepo.UpdateConnection(ctx, connectionID, status); err != nil {
		log.Error().Err(err).Str("connection_id", connectionID).Str("status", status).Msg("Failed to update connection")
		c.setError(repository.Message(err, "Failed to update connection"))
		return err
	}

	log.Info().Str("connection_id", connectionID).Str("status", status).Msg("Connection updated")
	_ = c.Load(ctx)
	return nil
}

// Delete removes a connection of any status after confirmation. It reports
// whether the connection was deleted.
func (c *ConnectionsController) Delete(ctx context.Context, connectionID string, confirm Confirmer) (bool, error) {
	if !confirmed(confirm, "Are you sure you want to delete this connection?") {
		return false, nil
	}

	if err := c.begin(connectionID); err != nil {
		return false, err
	}
	defer c.end()

	if err := c.connectionRepo.DeleteConnection(ctx, connectionID); err != nil {
		log.Error().Err(err).Str("connection_id", connectionID).Msg("Failed to delete connection")
		c.setError(repository.Message(err, "Failed to delete connection"))
		return false, err
	}

	log.Info().Str("connection_id", connectionID).Msg("Connection deleted")
	_ = c.Load(ctx)
	return true, nil
}

func (c *ConnectionsController) find(connectionID string) (models.Connection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.items {
		if conn.ID == connectionID {
			return conn, true
		}
	}
	return models.Connection{}, false
}

func (c *ConnectionsController) begin(connectionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updating != "" {
		return ErrBusy
	}
	c.updating = connectionID
	c.errMsg = ""
	return nil
}

func (c *ConnectionsController) end() {
	c.mu.Lock()
	c.updating = ""
	c.mu.Unlock()
}

func (c *ConnectionsController) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}
