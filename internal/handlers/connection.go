package handlers

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
)

// ConnectionHandler handles the connections commands
type ConnectionHandler struct {
	connectionRepo *repository.ConnectionRepository
	sessions       *services.SessionManager
	console        *Console
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionRepo *repository.ConnectionRepository, sessions *services.SessionManager, console *Console) *ConnectionHandler {
	return &ConnectionHandler{
		connectionRepo: connectionRepo,
		sessions:       sessions,
		console:        console,
	}
}

// Command returns the connections command tree.
func (h *ConnectionHandler) Command() *Command {
	return &Command{
		Name:    "connections",
		Summary: "List and manage your connections",
		Subcommands: []*Command{
			h.listCommand(),
			h.statusCommand("accept", "Accept a pending connection request", models.ConnectionAccepted),
			h.statusCommand("block", "Block a pending connection request", models.ConnectionBlocked),
			h.deleteCommand(),
		},
	}
}

func (h *ConnectionHandler) controller(ctx context.Context, filter services.Filter) (*services.ConnectionsController, error) {
	user, err := h.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	ctl := services.NewConnectionsController(h.connectionRepo, user.ID)
	if err := ctl.SetFilter(ctx, filter); err != nil {
		return nil, withMessage(err, ctl.Error())
	}
	return ctl, nil
}

func (h *ConnectionHandler) listCommand() *Command {
	var status string
	var asJSON bool
	return &Command{
		Name:    "list",
		Summary: "List connections",
		Usage:   "synvoy connections list [--status all|pending|accepted|blocked] [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.StringVarP(&status, "status", "s", string(services.FilterAll), "only show connections with this status")
			flagSet.BoolVar(&asJSON, "json", false, "print the connections as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 0, "no arguments"); err != nil {
				return err
			}
			filter, err := services.ParseFilter(status)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			ctl, err := h.controller(ctx, filter)
			if err != nil {
				return err
			}

			rows := ctl.Rows()
			if asJSON {
				connections := make([]models.Connection, 0, len(rows))
				for _, row := range rows {
					connections = append(connections, row.Connection)
				}
				return h.console.writeJSON(connections)
			}
			return h.printRows(rows)
		},
	}
}

func (h *ConnectionHandler) printRows(rows []services.ConnectionRow) error {
	if len(rows) == 0 {
		h.console.Notef("No connections found.\n")
		return nil
	}

	tw := tabwriter.NewWriter(h.console.Out, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tSTATUS\tACTIONS\n")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Connection.ID, counterpartName(row), row.Connection.Status, actionLabels(row.Actions))
	}
	return tw.Flush()
}

func counterpartName(row services.ConnectionRow) string {
	if name := row.OtherUser.DisplayName(); name != "" {
		return name
	}
	return "Unknown User"
}

func actionLabels(actions services.ConnectionActions) string {
	var labels []string
	if actions.Accept {
		labels = append(labels, "accept")
	}
	if actions.Block {
		labels = append(labels, "block")
	}
	if actions.RequestSent {
		labels = append(labels, "request sent")
	}
	if actions.Message {
		labels = append(labels, "message")
	}
	if actions.Delete {
		labels = append(labels, "delete")
	}
	return strings.Join(labels, ", ")
}

func (h *ConnectionHandler) statusCommand(name, summary, status string) *Command {
	return &Command{
		Name:    name,
		Summary: summary,
		Usage:   "synvoy connections " + name + " <connection-id>",
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 1, "<connection-id>"); err != nil {
				return err
			}
			ctl, err := h.controller(ctx, services.FilterAll)
			if err != nil {
				return err
			}
			if err := ctl.UpdateStatus(ctx, args[0], status); err != nil {
				return withMessage(err, ctl.Error())
			}
			h.console.Printf("Connection %s\n", status)
			return nil
		},
	}
}

func (h *ConnectionHandler) deleteCommand() *Command {
	var yes bool
	return &Command{
		Name:    "delete",
		Summary: "Delete a connection",
		Usage:   "synvoy connections delete <connection-id> [--yes]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			flagSet.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 1, "<connection-id>"); err != nil {
				return err
			}
			ctl, err := h.controller(ctx, services.FilterAll)
			if err != nil {
				return err
			}
			deleted, err := ctl.Delete(ctx, args[0], h.console.Confirmer(yes))
			if err != nil {
				return withMessage(err, ctl.Error())
			}
			if deleted {
				h.console.Printf("Connection deleted\n")
			}
			return nil
		},
	}
}
