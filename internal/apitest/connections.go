package apitest

import (
	"net/http"
	"sort"
	"strings"

	"synvoy-client/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listConnections(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	status := r.URL.Query().Get("status")

	s.mu.Lock()
	defer s.mu.Unlock()

	conns := make([]models.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		if c.UserID != userID && c.ConnectedUserID != userID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out := *c
		out.User = s.userLocked(c.UserID)
		out.ConnectedUser = s.userLocked(c.ConnectedUserID)
		conns = append(conns, out)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	respondJSON(w, conns, http.StatusOK)
}

func (s *Server) updateConnection(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	connectionID := chi.URLParam(r, "connection_id")

	var req models.StatusRequest
	if err := decode(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.connections[connectionID]
	if !ok {
		respondError(w, "Connection not found", http.StatusNotFound)
		return
	}
	if c.ConnectedUserID != userID {
		respondError(w, "Only the receiver can respond to a connection request", http.StatusForbidden)
		return
	}
	c.Status = req.Status
	respondJSON(w, *c, http.StatusOK)
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	connectionID := chi.URLParam(r, "connection_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.connections[connectionID]
	if !ok {
		respondError(w, "Connection not found", http.StatusNotFound)
		return
	}
	if c.UserID != userID && c.ConnectedUserID != userID {
		respondError(w, "Not authorized", http.StatusForbidden)
		return
	}
	delete(s.connections, connectionID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	var form models.ContactForm
	if err := decode(r, &form); err != nil {
		respondError(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}
	if strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.Message) == "" {
		respondError(w, "Name and message are required", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	s.contacts = append(s.contacts, form)
	s.mu.Unlock()

	respondJSON(w, models.ContactResponse{Success: true, Message: "Thank you for contacting us"}, http.StatusOK)
}
