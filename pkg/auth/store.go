package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// StoredCookie is the persisted form of a session cookie. A cookie jar only
// hands back name and value; they are scoped to the API base URL again when
// restored.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StoredSession is what survives between CLI invocations.
type StoredSession struct {
	Mode    string         `json:"mode"`
	Token   string         `json:"token,omitempty"`
	Cookies []StoredCookie `json:"cookies,omitempty"`
	User    *models.User   `json:"user,omitempty"`
	SavedAt time.Time      `json:"saved_at"`
}

// Store persists a session to a file readable only by the owner.
type Store struct {
	path string
}

// NewStore creates a store at path. An empty path keeps nothing on disk.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored session. A missing file yields ErrNoSession.
func (s *Store) Load() (*StoredSession, error) {
	if s.path == "" {
		return nil, ErrNoSession
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var stored StoredSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", s.path, err)
	}
	return &stored, nil
}

// Save writes the session atomically with 0600 permissions.
func (s *Store) Save(stored *StoredSession) error {
	if s.path == "" {
		return nil
	}
	stored.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Clear removes the stored session.
func (s *Store) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func storeCookies(cookies []*http.Cookie) []StoredCookie {
	out := make([]StoredCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, StoredCookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func restoreCookies(stored []StoredCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}
