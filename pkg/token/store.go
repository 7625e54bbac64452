// Package token resolves the bearer token used against the analysis
// service: an explicit API key from the environment, a previously cached
// anonymous token, or a freshly registered anonymous token.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the token cache inside the instagit directory.
const FileName = "token.json"

type storedToken struct {
	Token string `json:"token"`
}

// Store persists the anonymous token as {"token": "..."}.
type Store struct {
	path string
}

// NewStore returns a Store for dir/token.json.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the cached token, or "" when none is cached.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading token: %w", err)
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}

	return st.Token, nil
}

// Save writes token with 0600 permissions.
func (s *Store) Save(token string) error {
	if token == "" {
		return errors.New("cannot save empty token")
	}

	data, err := json.Marshal(storedToken{Token: token})
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}

	return nil
}

// Clear removes the cached token. Clearing an absent token is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}
