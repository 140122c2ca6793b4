// Package session holds the authenticated viewer's credentials. It is the
// explicit object passed to collaborators that need the token or the
// current user, replacing ambient global lookups.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tangle/internal/models"
)

// Session is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

// New returns an empty, unauthenticated session.
func New() *Session {
	return &Session{}
}

// SetCredentials installs the token and user returned by a successful
// login or registration.
func (s *Session) SetCredentials(token string, user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	u := user
	s.user = &u
}

// Clear logs the viewer out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns a copy of the logged-in user, if any.
func (s *Session) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// UserID returns the viewer's id, or "" when unauthenticated.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Authenticated reports whether a viewer is logged in.
func (s *Session) Authenticated() bool {
	return s.UserID() != ""
}

// Expired inspects the token's exp claim without verifying the signature
// (the server owns verification; the client only needs to know whether a
// login prompt is due). Tokens without an exp claim never expire locally.
func (s *Session) Expired() bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return true
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		// Opaque non-JWT tokens are treated as live; the server will
		// reject them with a 401 if they are not.
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
