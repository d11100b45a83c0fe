// Package session persists the signed-in user's token pair between runs.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	toml "github.com/pelletier/go-toml/v2"
)

// Session is the persisted login state.
type Session struct {
	UserID       string `toml:"user_id"`
	Email        string `toml:"email"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// LoggedIn reports whether an access token is present.
func (s Session) LoggedIn() bool {
	return strings.TrimSpace(s.AccessToken) != ""
}

// Claims are the parts of the access token the client reads.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Claims decodes the access token without verifying its signature.
func (s Session) Claims() (Claims, error) {
	if !s.LoggedIn() {
		return Claims{}, fmt.Errorf("parse token: not logged in")
	}
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &registered); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	claims := Claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}

// Expired reports whether the access token has expired at now. Tokens that
// cannot be parsed or carry no expiry count as live.
func (s Session) Expired(now time.Time) bool {
	claims, err := s.Claims()
	if err != nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(claims.ExpiresAt)
}

// Load reads the session file. A missing file is an empty session.
func Load(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := toml.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("parse session: %w", err)
	}
	return s, nil
}

// Save writes the session with owner-only permissions.
func Save(path string, s Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Holder is the live session shared with the API client. Every token
// change is written through to disk when a path is set.
type Holder struct {
	mu   sync.RWMutex
	path string
	s    Session
}

// NewHolder wraps s. An empty path keeps the session in memory only.
func NewHolder(path string, s Session) *Holder {
	return &Holder{path: path, s: s}
}

// AccessToken returns the current bearer token.
func (h *Holder) AccessToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s.AccessToken
}

// RefreshToken returns the current refresh token.
func (h *Holder) RefreshToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s.RefreshToken
}

// Update stores a new token pair. An empty pair signs the user out and
// removes the session file.
func (h *Holder) Update(access, refresh string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if access == "" && refresh == "" {
		h.s = Session{}
		return h.clearLocked()
	}
	h.s.AccessToken = access
	h.s.RefreshToken = refresh
	return h.saveLocked()
}

// SetIdentity records who the tokens belong to.
func (h *Holder) SetIdentity(userID, email string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s.UserID = userID
	h.s.Email = email
	return h.saveLocked()
}

// Session returns a copy of the current session.
func (h *Holder) Session() Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s
}

func (h *Holder) saveLocked() error {
	if h.path == "" {
		return nil
	}
	return Save(h.path, h.s)
}

func (h *Holder) clearLocked() error {
	if h.path == "" {
		return nil
	}
	return Clear(h.path)
}
