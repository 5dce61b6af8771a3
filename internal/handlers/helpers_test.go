package handlers

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"synvoy-client/internal/apitest"
	"synvoy-client/internal/clock"
	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
	"synvoy-client/internal/session"
)

var epoch = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	api    *apitest.Server
	clock  *clock.FakeClock
	store  *session.FileStore
	client *repository.Client

	out    bytes.Buffer
	errOut bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.Fake(epoch)
	api := apitest.New(t, clk)
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	return &fixture{
		api:    api,
		clock:  clk,
		store:  store,
		client: repository.NewClient(api.URL, api.HTTPClient(store)),
	}
}

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

// run executes one command line with stdin as the piped input.
func (f *fixture) run(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	f.out.Reset()
	f.errOut.Reset()

	in := strings.NewReader(stdin)
	authRepo := repository.NewAuthRepository(f.client)
	sessions := services.NewSessionManager(authRepo, f.store, f.clock)
	sessions.Init(context.Background())

	root := NewRoot(Deps{
		AuthRepo:       authRepo,
		TripRepo:       repository.NewTripRepository(f.client),
		ConnectionRepo: repository.NewConnectionRepository(f.client),
		ContactRepo:    repository.NewContactRepository(f.client),
		Sessions:       sessions,
		Clock:          f.clock,
		Verification:   services.DefaultVerificationConfig(),
		Console:        NewConsole(in, &f.out, &f.errOut),
		Stdin:          in,
	})
	return root.Execute(context.Background(), args, &f.out)
}

func named(id, first, last string) models.User {
	return models.User{
		ID:         id,
		Username:   strings.ToLower(first),
		Email:      strings.ToLower(first) + "@example.com",
		FirstName:  first,
		LastName:   last,
		IsVerified: true,
	}
}

func assertContains(t *testing.T, what, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("%s = %q, want it to contain %q", what, got, want)
	}
}
