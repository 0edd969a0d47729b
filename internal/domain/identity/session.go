// Package identity holds the authenticated user and the client session.
package identity

import (
	"strings"

	"github.com/bobvengers/mapmate/internal/domain/shared"
)

// User is the identity returned by the login endpoint.
type User struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// Session is the bearer token together with the identity it was issued for.
// The two are always written together; a token never exists without its user.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// NewSession validates and builds a session
func NewSession(token string, user User) (*Session, error) {
	s := &Session{Token: token, User: user}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate enforces the token/identity invariant
func (s *Session) Validate() error {
	if s == nil {
		return shared.NewDomainError("INVALID_SESSION", "Session is empty")
	}
	if strings.TrimSpace(s.Token) == "" {
		return shared.NewDomainError("INVALID_SESSION", "Session token cannot be empty")
	}
	if s.User.UserID <= 0 {
		return shared.NewDomainError("INVALID_SESSION", "Session user id must be positive")
	}
	if strings.TrimSpace(s.User.Nickname) == "" {
		return shared.NewDomainError("INVALID_SESSION", "Session nickname cannot be empty")
	}
	return nil
}

// Identity returns a copy of the session's user
func (s *Session) Identity() *User {
	if s == nil {
		return nil
	}
	u := s.User
	return &u
}

// Is reports whether u refers to the same account as other
func (u *User) Is(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	return u.UserID == other.UserID
}
