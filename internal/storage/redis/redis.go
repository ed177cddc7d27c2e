package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/toolquota/internal/config"
	"github.com/goodtune/toolquota/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store implements storage.Store using Redis strings
type Store struct {
	client *redis.Client
	prefix string
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// A zero port means Host already carries one
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, prefix: cfg.KeyPrefix}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

// Get returns the value stored at key
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", s.wrap(err)
	}
	return value, nil
}

// Set stores value at key with no expiry; stale usage records are replaced
// by the tracker rather than expired by Redis.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.wrap(s.client.Set(ctx, s.key(key), value, 0).Err())
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.wrap(s.client.Del(ctx, s.key(key)).Err())
}

func (s *Store) wrap(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return err
}
