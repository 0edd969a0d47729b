// Package auth owns the client session: logging in and out, restoring a
// saved login, and telling views when the signed-in user changes.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/bobvengers/mapmate/internal/infrastructure/apiclient"
	"github.com/bobvengers/mapmate/internal/infrastructure/sessionstore"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// API is the slice of the gateway the session service needs
type API interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body, out any) error
}

type tokenSourceSetter interface {
	SetTokenSource(apiclient.TokenSource)
}

// LoginError is returned when the server refuses a login. Its message is the
// server's text, shown to the user as-is.
type LoginError struct {
	Err error
}

func (e *LoginError) Error() string { return e.Err.Error() }

func (e *LoginError) Unwrap() error { return e.Err }

// Is lets callers test for shared.ErrInvalidCredentials
func (e *LoginError) Is(target error) bool {
	return target == shared.ErrInvalidCredentials
}

// Listener is told the new identity after every login, logout, or restore.
// A nil user means signed out.
type Listener func(user *identity.User)

// SessionService holds the authenticated identity and bearer token.
// It is the only shared mutable state in the client.
type SessionService struct {
	api      API
	store    sessionstore.Store
	validate *validator.Validate
	logger   *zap.Logger

	mu      sync.RWMutex
	session *identity.Session

	subMu     sync.Mutex
	nextSubID int
	listeners map[int]Listener
}

// NewSessionService creates the service. When api can take a token source,
// the service registers itself so every request carries the current token.
func NewSessionService(api API, store sessionstore.Store, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionService{
		api:       api,
		store:     store,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.Named("session"),
		listeners: make(map[int]Listener),
	}
	if setter, ok := api.(tokenSourceSetter); ok {
		setter.SetTokenSource(s)
	}
	return s
}

// Login sends the credentials, then persists and publishes the new session.
// The token and identity are written together or not at all.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*identity.Session, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := s.validate.Struct(input); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Username and password are required")
	}

	var resp loginResponse
	err := s.api.Post(ctx, "/users/login", input, &resp)
	if err != nil {
		if apiclient.IsServerRejected(err) {
			s.logger.Info("login rejected", zap.String("username", input.Username), zap.Int("status", apiclient.StatusCode(err)))
			return nil, &LoginError{Err: err}
		}
		return nil, err
	}

	session, err := identity.NewSession(resp.Token, identity.User{
		UserID:   resp.UserID,
		Username: resp.Username,
		Nickname: resp.Nickname,
	})
	if err != nil {
		s.logger.Warn("login response missing identity", zap.String("username", input.Username), zap.Error(err))
		return nil, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.set(session)
	s.logger.Info("logged in", zap.Int64("user_id", session.User.UserID), zap.String("nickname", session.User.Nickname))
	return session, nil
}

// Signup creates an account and returns the server's confirmation text
func (s *SessionService) Signup(ctx context.Context, input SignupInput) (string, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Nickname = strings.TrimSpace(input.Nickname)
	if err := s.validate.Struct(input); err != nil {
		return "", shared.NewDomainError("INVALID_INPUT", "Username, nickname and password are required")
	}

	resp, err := s.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/users/signup", Body: input})
	if err != nil {
		return "", err
	}
	s.logger.Info("account created", zap.String("username", input.Username))
	return strings.Trim(strings.TrimSpace(string(resp.Body)), `"`), nil
}

// SignupAndLogin creates an account and signs straight into it
func (s *SessionService) SignupAndLogin(ctx context.Context, input SignupInput) (*identity.Session, error) {
	if _, err := s.Signup(ctx, input); err != nil {
		return nil, err
	}
	return s.Login(ctx, LoginInput{Username: input.Username, Password: input.Password})
}

// Logout forgets the session locally and in the store. It always succeeds
// in memory; a store failure is reported after the fact.
func (s *SessionService) Logout(ctx context.Context) error {
	s.set(nil)
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// Restore loads a persisted session and trusts it without asking the
// server. A revoked token surfaces later as a rejected request.
func (s *SessionService) Restore(ctx context.Context) (*identity.User, error) {
	session, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	s.set(session)
	if session == nil {
		return nil, nil
	}
	s.logger.Debug("session restored", zap.Int64("user_id", session.User.UserID))
	return session.Identity(), nil
}

// CurrentUser returns the signed-in identity or nil
func (s *SessionService) CurrentUser() *identity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Identity()
}

// RequireUser returns the signed-in identity or shared.ErrLoginRequired
func (s *SessionService) RequireUser() (*identity.User, error) {
	if u := s.CurrentUser(); u != nil {
		return u, nil
	}
	return nil, shared.ErrLoginRequired
}

// Token returns the bearer token, or "" when signed out
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// Subscribe registers fn for identity changes and returns a function that
// removes it.
func (s *SessionService) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.listeners, id)
		s.subMu.Unlock()
	}
}

func (s *SessionService) set(session *identity.Session) {
	s.mu.Lock()
	if session != nil {
		cp := *session
		session = &cp
	}
	s.session = session
	user := session.Identity()
	s.mu.Unlock()

	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}
