// Package apitest runs an in-memory stand-in for the Synvoy API so the
// repositories, controllers and CLI handlers can be exercised end to end.
package apitest

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"synvoy-client/internal/clock"
	"synvoy-client/internal/middleware"
	"synvoy-client/internal/models"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL       = 30 * time.Minute
	codeTTL        = 10 * time.Minute
	deletionDelay  = 2 * time.Hour
	resendCooldown = 5 * time.Minute
)

// Server is a fake Synvoy API backed by maps
type Server struct {
	URL string

	srv    *httptest.Server
	clock  clock.Clock
	secret []byte

	mu            sync.Mutex
	accounts      map[string]*account
	trips         map[string]*models.Trip
	connections   map[string]*models.Connection
	verifications map[string]*verification
	revoked       map[string]bool
	contacts      []models.ContactForm
	failures      map[string]failure
	calls         map[string]int
	requestIDs    []string
	authHeaders   []string
}

type account struct {
	user         models.User
	passwordHash []byte
}

type verification struct {
	code       string
	expiresAt  time.Time
	deletionAt time.Time
	lastSentAt time.Time
}

type failure struct {
	status int
	detail string
}

// New starts a fake API and stops it when the test ends. clk drives token
// expiry and verification countdowns; nil uses the real clock.
func New(t testing.TB, clk clock.Clock) *Server {
	t.Helper()
	if clk == nil {
		clk = clock.Real()
	}

	s := &Server{
		clock:         clk,
		secret:        []byte("apitest-secret"),
		accounts:      make(map[string]*account),
		trips:         make(map[string]*models.Trip),
		connections:   make(map[string]*models.Connection),
		verifications: make(map[string]*verification),
		revoked:       make(map[string]bool),
		failures:      make(map[string]failure),
		calls:         make(map[string]int),
	}
	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// HTTPClient returns a client wired with the same transport chain the CLI
// uses. tokens may be nil for unauthenticated calls.
func (s *Server) HTTPClient(tokens middleware.TokenSource) *http.Client {
	chain := []middleware.Middleware{middleware.RequestID()}
	if tokens != nil {
		chain = append(chain, middleware.Auth(tokens))
	}
	return &http.Client{Transport: middleware.Chain(s.srv.Client().Transport, chain...)}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.record)

	r.Post("/auth/login", s.login)
	r.Post("/auth/register", s.register)
	r.Get("/auth/verification-status", s.verificationStatus)
	r.Post("/auth/verify-email", s.verifyEmail)
	r.Post("/auth/resend-verification", s.resendVerification)
	r.Post("/contact/", s.submitContact)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/auth/logout", s.logout)
		r.Get("/auth/profile", s.profile)

		r.Get("/trips/{trip_id}", s.getTrip)
		r.Delete("/trips/{trip_id}", s.deleteTrip)
		r.Post("/trips/{trip_id}/invite", s.inviteUsers)
		r.Put("/trips/{trip_id}/participants/{participant_id}", s.updateParticipant)
		r.Delete("/trips/{trip_id}/participants/{participant_id}", s.removeParticipant)

		r.Get("/connections", s.listConnections)
		r.Put("/connections/{connection_id}", s.updateConnection)
		r.Delete("/connections/{connection_id}", s.deleteConnection)
	})
	return r
}

// record counts calls, captures headers and serves injected failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.calls[key]++
		s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		f, injected := s.failures[key]
		if injected {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if injected {
			respondError(w, f.detail, f.status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddUser registers an account. An empty ID is filled with a uuid.
func (s *Server) AddUser(user models.User, password string) models.User {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apitest: hash password: %v", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user.ID] = &account{user: user, passwordHash: hash}
	return user
}

// User returns the stored account.
func (s *Server) User(userID string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return models.User{}, false
	}
	return acc.user, true
}

// IssueToken signs a token for userID that expires after ttl.
func (s *Server) IssueToken(userID string, ttl time.Duration) string {
	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

// AddTrip stores a trip. Participant ids are filled in when missing.
func (s *Server) AddTrip(trip models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range trip.Participants {
		if trip.Participants[i].ID == "" {
			trip.Participants[i].ID = uuid.New().String()
		}
		trip.Participants[i].TripID = trip.ID
		trip.Participants[i].User = nil
	}
	s.trips[trip.ID] = &trip
}

// Trip returns the stored trip.
func (s *Server) Trip(tripID string) (models.Trip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[tripID]
	if !ok {
		return models.Trip{}, false
	}
	return *trip, true
}

// AddConnection stores a connection.
func (s *Server) AddConnection(conn models.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn.User = nil
	conn.ConnectedUser = nil
	s.connections[conn.ID] = &conn
}

// Connection returns the stored connection.
func (s *Server) Connection(connectionID string) (models.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.connections[connectionID]
	if !ok {
		return models.Connection{}, false
	}
	return *conn, true
}

// StartVerification issues code for email, expiring after ttl. The account is
// deleted (server-side, not simulated) after the usual two hours.
func (s *Server) StartVerification(email, code string, ttl time.Duration) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications[email] = &verification{
		code:       code,
		expiresAt:  now.Add(ttl),
		deletionAt: now.Add(deletionDelay),
		lastSentAt: now,
	}
}

// VerificationCode returns the current code for email.
func (s *Server) VerificationCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.verifications[email]; ok {
		return v.code
	}
	return ""
}

// Fail makes the next request to method+path answer with status and detail.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, detail: detail}
}

// Calls returns how many requests hit method+path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// RequestIDs returns the X-Request-ID of every request in arrival order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// AuthHeaders returns the Authorization header of every request in arrival order.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

// Contacts returns the accepted contact submissions.
func (s *Server) Contacts() []models.ContactForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ContactForm(nil), s.contacts...)
}

func (s *Server) userLocked(userID string) *models.User {
	acc, ok := s.accounts[userID]
	if !ok {
		return nil
	}
	user := acc.user
	return &user
}

func (s *Server) findByEmailLocked(email string) *account {
	for _, acc := range s.accounts {
		if acc.user.Email == email {
			return acc
		}
	}
	return nil
}

func newCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(fmt.Sprintf("apitest: generate code: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func respondJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, detail string, statusCode int) {
	respondJSON(w, map[string]string{"detail": detail}, statusCode)
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
