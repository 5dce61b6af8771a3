// Package session persists the bearer token and the last known profile
// between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"synvoy-client/internal/models"
)

// ErrNoSession is returned by Load when nothing is persisted.
var ErrNoSession = errors.New("no session")

// Session is the persisted credential plus cached profile.
type Session struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
	SavedAt     time.Time    `json:"saved_at"`
}

// DefaultPath returns $XDG_CONFIG_HOME/synvoy/session.json, falling back to ~/.config.
func DefaultPath() string {
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "synvoy-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "synvoy", "session.json")
}

// FileStore keeps the session in a JSON file readable only by the owner.
// The last loaded or saved session is cached in memory.
type FileStore struct {
	path string

	mu     sync.RWMutex
	cached *Session
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the session from disk. A missing file, or one lacking a token or
// user, yields ErrNoSession.
func (s *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.setCached(nil)
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file %s: %w", s.path, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", s.path, err)
	}
	if sess.AccessToken == "" || sess.User == nil {
		s.setCached(nil)
		return nil, ErrNoSession
	}

	s.setCached(&sess)
	return &sess, nil
}

// Save writes the session with mode 0600, creating the directory with 0700.
func (s *FileStore) Save(sess *Session) error {
	if sess == nil || sess.AccessToken == "" {
		return fmt.Errorf("refusing to save a session without access token")
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("failed to create session directory %s: %w", directory, err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file %s: %w", s.path, err)
	}

	copied := *sess
	s.setCached(&copied)
	return nil
}

// SaveUser replaces the cached profile and keeps the token.
func (s *FileStore) SaveUser(user *models.User, now time.Time) error {
	s.mu.RLock()
	current := s.cached
	s.mu.RUnlock()

	if current == nil {
		loaded, err := s.Load()
		if err != nil {
			return err
		}
		current = loaded
	}

	return s.Save(&Session{AccessToken: current.AccessToken, User: user, SavedAt: now})
}

// Clear removes the session file. Clearing an absent session is not an error.
func (s *FileStore) Clear() error {
	s.setCached(nil)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file %s: %w", s.path, err)
	}
	return nil
}

// Token returns the cached bearer token, or "" when there is no session.
func (s *FileStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil {
		return ""
	}
	return s.cached.AccessToken
}

func (s *FileStore) setCached(sess *Session) {
	s.mu.Lock()
	s.cached = sess
	s.mu.Unlock()
}
