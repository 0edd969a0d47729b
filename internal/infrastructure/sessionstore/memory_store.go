package sessionstore

import (
	"context"
	"sync"

	"github.com/bobvengers/mapmate/internal/domain/identity"
)

// MemoryStore keeps the session in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	session *identity.Session
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored session
func (s *MemoryStore) Load(_ context.Context) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, nil
	}
	cp := *s.session
	return &cp, nil
}

// Save stores a copy of session
func (s *MemoryStore) Save(_ context.Context, session *identity.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	cp := *session
	s.mu.Lock()
	s.session = &cp
	s.mu.Unlock()
	return nil
}

// Clear drops the stored session
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
