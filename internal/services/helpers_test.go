package services

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"synvoy-client/internal/apitest"
	"synvoy-client/internal/clock"
	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/session"
)

var epoch = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	api   *apitest.Server
	clock *clock.FakeClock
	store *session.FileStore

	auth        *repository.AuthRepository
	trips       *repository.TripRepository
	connections *repository.ConnectionRepository
	contact     *repository.ContactRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.Fake(epoch)
	api := apitest.New(t, clk)
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	client := repository.NewClient(api.URL, api.HTTPClient(store))

	return &fixture{
		api:         api,
		clock:       clk,
		store:       store,
		auth:        repository.NewAuthRepository(client),
		trips:       repository.NewTripRepository(client),
		connections: repository.NewConnectionRepository(client),
		contact:     repository.NewContactRepository(client),
	}
}

// signIn persists a valid session for user so requests carry its token.
func (f *fixture) signIn(t *testing.T, user models.User) {
	t.Helper()
	err := f.store.Save(&session.Session{
		AccessToken: f.api.IssueToken(user.ID, time.Hour),
		User:        &user,
		SavedAt:     f.clock.Now(),
	})
	if err != nil {
		t.Fatalf("Save session: %v", err)
	}
}

func (f *fixture) sessions() *SessionManager {
	return NewSessionManager(f.auth, f.store, f.clock)
}

// eventually polls cond until it holds or a second of wall time passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func intPtr(v int) *int {
	return &v
}

func named(id, first, last string) models.User {
	return models.User{
		ID:         id,
		Username:   first + "." + last,
		Email:      strings.ToLower(first) + "@example.com",
		FirstName:  first,
		LastName:   last,
		IsVerified: true,
	}
}
