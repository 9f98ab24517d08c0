package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// TokenStore persists the access token between CLI runs.
type TokenStore struct {
	Path string
}

// Load returns the stored token, or "" when none was saved.
func (s TokenStore) Load() (string, error) {
	if s.Path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Save writes token with owner-only permissions.
func (s TokenStore) Save(token string) error {
	if s.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the stored token and user.
func (s TokenStore) Clear() error {
	if s.Path == "" {
		return nil
	}
	for _, path := range []string{s.Path, s.userPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
	}
	return nil
}

func (s TokenStore) userPath() string {
	return s.Path + ".user.json"
}

// SaveUser records the logged-in user next to the token. The push channel
// and the transaction relay identify the session by its id.
func (s TokenStore) SaveUser(u types.User) error {
	if s.Path == "" {
		return nil
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.userPath(), raw, 0o600); err != nil {
		return fmt.Errorf("write user file: %w", err)
	}
	return nil
}

// LoadUser returns the recorded user. ok is false when none was saved.
func (s TokenStore) LoadUser() (u types.User, ok bool, err error) {
	if s.Path == "" {
		return types.User{}, false, nil
	}
	raw, err := os.ReadFile(s.userPath())
	if errors.Is(err, os.ErrNotExist) {
		return types.User{}, false, nil
	}
	if err != nil {
		return types.User{}, false, fmt.Errorf("read user file: %w", err)
	}
	if err := json.Unmarshal(raw, &u); err != nil {
		return types.User{}, false, fmt.Errorf("decode user file: %w", err)
	}
	return u, true, nil
}
