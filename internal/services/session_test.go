package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/session"
)

func TestLoginPersistsVerifiedUser(t *testing.T) {
	f := newFixture(t)
	f.api.AddUser(named("u1", "Ana", "Silva"), "correct-horse")
	sessions := f.sessions()

	result, err := sessions.Login(context.Background(), "ana@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Next != DestinationDashboard {
		t.Errorf("Next = %q, want dashboard", result.Next)
	}
	if sessions.CurrentUser() == nil || sessions.CurrentUser().ID != "u1" {
		t.Errorf("CurrentUser = %+v", sessions.CurrentUser())
	}
	if sessions.Token() == "" {
		t.Error("Token is empty after login")
	}

	sess, err := session.NewFileStore(f.store.Path()).Load()
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if sess.User.ID != "u1" {
		t.Errorf("persisted user = %+v", sess.User)
	}
}

func TestLoginUnverifiedPersistsNothing(t *testing.T) {
	f := newFixture(t)
	user := named("u1", "Ana", "Silva")
	user.IsVerified = false
	f.api.AddUser(user, "correct-horse")
	sessions := f.sessions()

	result, err := sessions.Login(context.Background(), user.Email, "correct-horse")
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("Login err = %v, want ErrEmailNotVerified", err)
	}
	if result == nil || result.Next != DestinationVerifyEmail || result.User.Email != user.Email {
		t.Fatalf("result = %+v", result)
	}
	if sessions.CurrentUser() != nil {
		t.Error("unverified login set the current user")
	}
	if _, err := f.store.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("store.Load err = %v, want ErrNoSession", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.api.AddUser(named("u1", "Ana", "Silva"), "correct-horse")

	_, err := f.sessions().Login(context.Background(), "ana@example.com", "wrong")
	if !repository.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("err = %v, want 401", err)
	}
	if got := repository.Message(err, ""); got != "Incorrect email or password" {
		t.Errorf("message = %q", got)
	}
}

func TestRegisterPersistsAndRoutesToVerification(t *testing.T) {
	f := newFixture(t)
	sessions := f.sessions()

	result, err := sessions.Register(context.Background(), models.RegisterRequest{
		Username:   "bruno",
		FirstName:  "Bruno",
		LastName:   "Costa",
		Email:      "bruno@example.com",
		Password:   "long-enough",
		TesterCode: "BETA",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.Next != DestinationVerifyEmail {
		t.Errorf("Next = %q, want verify-email", result.Next)
	}
	if f.store.Token() == "" {
		t.Error("register did not persist the token")
	}
	if f.api.VerificationCode("bruno@example.com") == "" {
		t.Error("server did not issue a verification code")
	}
}

func TestRegisterValidatesLocally(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions().Register(context.Background(), models.RegisterRequest{
		Username: "b",
		Email:    "not-an-email",
		Password: "short",
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(validationErr.Problems) < 3 {
		t.Errorf("problems = %v", validationErr.Problems)
	}
	if calls := f.api.Calls(http.MethodPost, "/auth/register"); calls != 0 {
		t.Errorf("register calls = %d, want 0", calls)
	}
}

func TestInitRestoresValidSession(t *testing.T) {
	f := newFixture(t)
	user := f.api.AddUser(named("u1", "Ana", "Silva"), "pw")
	f.signIn(t, user)

	sessions := f.sessions()
	sessions.Init(context.Background())

	if sessions.CurrentUser() == nil || sessions.CurrentUser().ID != "u1" {
		t.Fatalf("CurrentUser = %+v", sessions.CurrentUser())
	}
	if !sessions.IsAuthenticated() {
		t.Error("IsAuthenticated = false")
	}
	if sessions.IsLoading() {
		t.Error("still loading after Init")
	}
}

func TestInitDropsExpiredToken(t *testing.T) {
	f := newFixture(t)
	user := f.api.AddUser(named("u1", "Ana", "Silva"), "pw")
	f.signIn(t, user)
	f.clock.Advance(2 * time.Hour)

	sessions := f.sessions()
	sessions.Init(context.Background())

	if sessions.CurrentUser() != nil {
		t.Error("expired session was restored")
	}
	if calls := f.api.Calls(http.MethodGet, "/auth/profile"); calls != 0 {
		t.Errorf("profile calls = %d, want 0 for a locally expired token", calls)
	}
	if _, err := f.store.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("store.Load err = %v, want ErrNoSession", err)
	}
}

func TestInitDropsRejectedToken(t *testing.T) {
	f := newFixture(t)
	user := f.api.AddUser(named("u1", "Ana", "Silva"), "pw")
	f.signIn(t, user)
	f.api.Fail(http.MethodGet, "/auth/profile", http.StatusUnauthorized, "Could not validate credentials")

	sessions := f.sessions()
	sessions.Init(context.Background())

	if sessions.CurrentUser() != nil {
		t.Error("rejected session was restored")
	}
	if f.store.Token() != "" {
		t.Error("token kept after rejection")
	}
}

func TestLogoutClearsEvenWhenRemoteFails(t *testing.T) {
	f := newFixture(t)
	user := f.api.AddUser(named("u1", "Ana", "Silva"), "pw")
	f.signIn(t, user)
	f.api.Fail(http.MethodPost, "/auth/logout", http.StatusInternalServerError, "boom")

	sessions := f.sessions()
	sessions.Init(context.Background())
	sessions.Logout(context.Background())

	if sessions.CurrentUser() != nil || sessions.IsAuthenticated() {
		t.Error("user still set after logout")
	}
	if _, err := f.store.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("store.Load err = %v, want ErrNoSession", err)
	}
	if _, err := sessions.RequireUser(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("RequireUser err = %v", err)
	}
}
