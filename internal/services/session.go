package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"synvoy-client/internal/clock"
	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/session"

	"github.com/rs/zerolog/log"
)

// LoginResult describes a completed login or registration
type LoginResult struct {
	User *models.User
	Next Destination
}

// SessionManager owns the authenticated user and the persisted session.
// It is constructed once per process and handed to the controllers.
type SessionManager struct {
	authRepo *repository.AuthRepository
	store    *session.FileStore
	clock    clock.Clock

	mu      sync.RWMutex
	user    *models.User
	loading bool
}

// NewSessionManager creates a new session manager
func NewSessionManager(authRepo *repository.AuthRepository, store *session.FileStore, clk clock.Clock) *SessionManager {
	if clk == nil {
		clk = clock.Real()
	}
	return &SessionManager{
		authRepo: authRepo,
		store:    store,
		clock:    clk,
	}
}

// Init restores a persisted session. The stored token is checked locally for
// expiry and then validated against the profile endpoint; any failure clears
// the store and leaves the manager signed out.
func (m *SessionManager) Init(ctx context.Context) {
	m.setLoading(true)
	defer m.setLoading(false)

	sess, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			log.Warn().Err(err).Msg("Discarding unreadable session")
			m.clearLocal()
		}
		m.setUser(nil)
		return
	}

	if session.Expired(sess.AccessToken, m.clock.Now()) {
		log.Info().Str("user_id", sess.User.ID).Msg("Stored session expired")
		m.clearLocal()
		return
	}

	profile, err := m.authRepo.GetProfile(ctx)
	if err != nil {
		log.Info().Err(err).Str("user_id", sess.User.ID).Msg("Stored session is no longer valid")
		m.clearLocal()
		return
	}

	m.setUser(profile)
	if err := m.store.SaveUser(profile, m.clock.Now()); err != nil {
		log.Error().Err(err).Msg("Failed to persist refreshed profile")
	}
}

// Login authenticates the user. An unverified account yields a result pointing
// at the verification screen together with ErrEmailNotVerified; nothing is
// persisted in that case.
func (m *SessionManager) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	resp, err := m.authRepo.Login(ctx, identifier, password)
	if err != nil {
		log.Error().Err(err).Str("identifier", identifier).Msg("Login failed")
		return nil, err
	}

	if !resp.User.IsVerified {
		log.Info().Str("email", resp.User.Email).Msg("Login requires email verification")
		return &LoginResult{User: resp.User, Next: DestinationVerifyEmail}, ErrEmailNotVerified
	}

	if err := m.persist(resp); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", resp.User.ID).Msg("Logged in")
	return &LoginResult{User: resp.User, Next: DestinationDashboard}, nil
}

// Register creates an account and persists its session right away, before
// the email is verified.
func (m *SessionManager) Register(ctx context.Context, req models.RegisterRequest) (*LoginResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	m.setLoading(true)
	defer m.setLoading(false)

	resp, err := m.authRepo.Register(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Registration failed")
		return nil, err
	}

	if err := m.persist(resp); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", resp.User.ID).Msg("Registered")

	next := DestinationDashboard
	if !resp.User.IsVerified {
		next = DestinationVerifyEmail
	}
	return &LoginResult{User: resp.User, Next: next}, nil
}

// Logout calls the remote logout and clears local state whatever the outcome.
func (m *SessionManager) Logout(ctx context.Context) {
	if err := m.authRepo.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("Remote logout failed")
	}
	m.clearLocal()
}

// RefreshProfile re-fetches and re-persists the profile. Failures are logged only.
func (m *SessionManager) RefreshProfile(ctx context.Context) {
	profile, err := m.authRepo.GetProfile(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh profile")
		return
	}

	m.setUser(profile)
	if err := m.store.SaveUser(profile, m.clock.Now()); err != nil {
		log.Error().Err(err).Msg("Failed to persist refreshed profile")
	}
}

// CurrentUser returns the signed-in user, or nil.
func (m *SessionManager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// IsAuthenticated reports whether a user is signed in.
func (m *SessionManager) IsAuthenticated() bool {
	return m.CurrentUser() != nil
}

// RequireUser returns the signed-in user or ErrNotAuthenticated.
func (m *SessionManager) RequireUser() (*models.User, error) {
	user := m.CurrentUser()
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// IsLoading reports whether an auth operation is in progress.
func (m *SessionManager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Token returns the bearer token for the transport.
func (m *SessionManager) Token() string {
	return m.store.Token()
}

func (m *SessionManager) persist(resp *models.AuthResponse) error {
	err := m.store.Save(&session.Session{
		AccessToken: resp.AccessToken,
		User:        resp.User,
		SavedAt:     m.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	m.setUser(resp.User)
	return nil
}

func (m *SessionManager) clearLocal() {
	if err := m.store.Clear(); err != nil {
		log.Error().Err(err).Msg("Failed to clear session")
	}
	m.setUser(nil)
}

func (m *SessionManager) setUser(user *models.User) {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

func (m *SessionManager) setLoading(loading bool) {
	m.mu.Lock()
	m.loading = loading
	m.mu.Unlock()
}
