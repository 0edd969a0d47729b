package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore implements Store using Redis.
// Several shells or hosts pointing at the same key share one login.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore connects to Redis and returns a store for profile
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, profile string, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStore(client, cfg.KeyPrefix, profile, logger), nil
}

func newRedisStore(client *redis.Client, keyPrefix, profile string, logger *zap.Logger) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "mapmate:session:"
	}
	if profile == "" {
		profile = "default"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, key: keyPrefix + profile, logger: logger}
}

// Key returns the Redis key holding the session
func (s *RedisStore) Key() string {
	return s.key
}

// Load fetches the session document
func (s *RedisStore) Load(ctx context.Context) (*identity.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decode(data, s.logger), nil
}

// Save writes the session with a single SET. Sessions do not expire.
func (s *RedisStore) Save(ctx context.Context, session *identity.Session) error {
	data, err := encode(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear deletes the session key
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
