package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"synvoy-client/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load on empty store: err = %v, want ErrNoSession", err)
	}
	if store.Token() != "" {
		t.Fatalf("Token on empty store = %q", store.Token())
	}

	sess := &Session{
		AccessToken: "tok-1",
		User:        &models.User{ID: "u1", Email: "ana@example.com"},
		SavedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("session file mode = %v, want 0600", info.Mode().Perm())
	}

	reopened := NewFileStore(path)
	loaded, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.AccessToken != "tok-1" || loaded.User.ID != "u1" {
		t.Fatalf("loaded session = %+v", loaded)
	}
	if reopened.Token() != "tok-1" {
		t.Fatalf("Token after Load = %q", reopened.Token())
	}
}

func TestFileStoreSaveUserKeepsToken(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Save(&Session{AccessToken: "tok", User: &models.User{ID: "u1"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.SaveUser(&models.User{ID: "u1", IsVerified: true}, time.Now()); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	loaded, err := NewFileStore(store.Path()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.AccessToken != "tok" || !loaded.User.IsVerified {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestFileStoreSaveUserWithoutSession(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.SaveUser(&models.User{ID: "u1"}, time.Now()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("SaveUser err = %v, want ErrNoSession", err)
	}
}

func TestFileStoreClear(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}
	if err := store.Save(&Session{AccessToken: "tok", User: &models.User{ID: "u1"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.Token() != "" {
		t.Fatal("token survived Clear")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load after Clear: %v", err)
	}
}

func TestFileStoreRejectsIncompleteSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"access_token":"tok"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load err = %v, want ErrNoSession", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})
		signed, err := token.SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return signed
	}

	if !Expired(sign(now.Add(-time.Minute)), now) {
		t.Error("token that expired a minute ago reported as valid")
	}
	if Expired(sign(now.Add(time.Hour)), now) {
		t.Error("token valid for an hour reported as expired")
	}
	if Expired("opaque-token", now) {
		t.Error("opaque token reported as expired")
	}
	if _, ok := TokenExpiry("opaque-token"); ok {
		t.Error("TokenExpiry returned ok for an opaque token")
	}
}
