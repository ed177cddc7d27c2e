package cache

import (
	"context"
	"fmt"

	"github.com/goodtune/toolquota/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// Store is a write-through LRU read cache in front of another store.
//
// Only values the backing store accepted are cached, and misses are never
// cached. Writes made by other processes to the same backing store are not
// observed until the entry is evicted.
type Store struct {
	inner  storage.Store
	cache  *lru.Cache[string, string]
	logger zerolog.Logger
}

// New wraps inner with a cache holding at most size entries.
func New(inner storage.Store, size int, logger zerolog.Logger) (*Store, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Store{
		inner:  inner,
		cache:  c,
		logger: logger.With().Str("component", "storage-cache").Logger(),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if value, ok := s.cache.Get(key); ok {
		return value, nil
	}

	value, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	s.cache.Add(key, value)
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.inner.Set(ctx, key, value); err != nil {
		// The backing store may hold either value now; drop ours.
		s.cache.Remove(key)
		return err
	}

	if evicted := s.cache.Add(key, value); evicted {
		s.logger.Debug().Str("key", key).Msg("Cache full, evicted oldest entry")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.cache.Remove(key)
	return s.inner.Delete(ctx, key)
}

// Close purges the cache and closes the backing store.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.inner.Close()
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	return s.cache.Len()
}
