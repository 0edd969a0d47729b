// Package sessionstore persists the login session between runs.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Store persists a single session. The token and the identity are always
// written in one operation.
type Store interface {
	// Load returns the persisted session, or nil when none exists or the
	// stored document is unusable.
	Load(ctx context.Context) (*identity.Session, error)
	// Save replaces the persisted session
	Save(ctx context.Context, session *identity.Session) error
	// Clear removes the persisted session. Clearing an empty store succeeds.
	Clear(ctx context.Context) error
	// Close releases resources held by the store
	Close() error
}

// Open builds the store selected by cfg.Session.Backend
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Session.Backend {
	case config.SessionBackendFile, "":
		logger.Debug("using file session store", zap.String("path", cfg.Session.Path))
		return NewFileStore(cfg.Session.Path, logger), nil
	case config.SessionBackendRedis:
		store, err := NewRedisStore(ctx, cfg.Redis, cfg.Session.Profile, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("using redis session store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.String("key", store.Key()),
		)
		return store, nil
	case config.SessionBackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
}

// decode parses a stored document. Documents that fail the session invariant
// are reported as absent.
func decode(data []byte, logger *zap.Logger) *identity.Session {
	var s identity.Session
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("ignoring unreadable session", zap.Error(err))
		return nil
	}
	if err := s.Validate(); err != nil {
		logger.Warn("ignoring incomplete session", zap.Error(err))
		return nil
	}
	return &s
}

func encode(session *identity.Session) ([]byte, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(session)
}
