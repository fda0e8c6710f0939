package client

import (
	"sync"
	"time"

	"todo-server/internal/auth"
)

// State names the client-side auth lifecycle:
// Unauthenticated -> (login/signup) -> Authenticated -> (401 | logout) -> Unauthenticated.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Session holds the bearer token for the lifetime of a client. The decoded
// subject and expiry come from an unverified decode and exist for display
// only; the server re-verifies every request, so nothing here is an
// authorization decision.
type Session struct {
	mu        sync.Mutex
	token     string
	userID    int64
	expiresAt time.Time
}

// Start installs a freshly issued token, moving the session to Authenticated.
func (s *Session) Start(token string) error {
	userID, expiresAt, err := auth.DecodeUnverified(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = userID
	s.expiresAt = expiresAt
	return nil
}

// Clear drops the token, moving the session to Unauthenticated.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userID = 0
	s.expiresAt = time.Time{}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return StateUnauthenticated
	}
	return StateAuthenticated
}

// Token returns the raw bearer credential, empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// UserID returns the displayed subject of the current token, 0 when
// unauthenticated.
func (s *Session) UserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// ExpiresAt returns the displayed expiry of the current token.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}
