// Package auth stores the bearer token sent to the todo service.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvToken overrides the stored token when set.
const EnvToken = "TADA_TOKEN"

const credFileName = "credentials.json"

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional
}

// Expired reports whether the token has a known expiry in the past.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti != nil && ti.ExpiresAt != nil && now.After(*ti.ExpiresAt)
}

// Store keeps credentials under Dir.
type Store struct {
	Dir string
}

func (s Store) path() string { return filepath.Join(s.Dir, credFileName) }

// Get returns the active token, or nil when not logged in.
func (s Store) Get() (*TokenInfo, error) {
	// 1) env override
	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: "env"}, nil
	}

	// 2) file
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// Token returns the active token string, empty when there is none.
func (s Store) Token() (string, error) {
	ti, err := s.Get()
	if err != nil || ti == nil {
		return "", err
	}
	return ti.Token, nil
}

// Set writes token to the credentials file with owner-only permissions.
func (s Store) Set(token string, expires *time.Time) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(s.path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Delete removes the credentials file. A missing file is not an error.
func (s Store) Delete() error {
	if err := os.Remove(s.path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
