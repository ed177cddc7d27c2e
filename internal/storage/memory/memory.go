package memory

import (
	"context"
	"sync"

	"github.com/goodtune/toolquota/internal/storage"
)

// Store is an in-process storage.Store. With a non-zero quota it behaves like
// browser local storage: a write that would push the total size of keys and
// values past the quota fails with storage.ErrQuotaExceeded.
type Store struct {
	mu         sync.RWMutex
	data       map[string]string
	quotaBytes int
	usedBytes  int
	closed     bool
}

// New creates an empty store. A quotaBytes of zero means unlimited.
func New(quotaBytes int) *Store {
	return &Store{
		data:       make(map[string]string),
		quotaBytes: quotaBytes,
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", storage.ErrUnavailable
	}
	value, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrUnavailable
	}

	used := s.usedBytes + len(key) + len(value)
	if old, ok := s.data[key]; ok {
		used -= len(key) + len(old)
	}
	if s.quotaBytes > 0 && used > s.quotaBytes {
		return storage.ErrQuotaExceeded
	}

	s.data[key] = value
	s.usedBytes = used
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrUnavailable
	}
	if old, ok := s.data[key]; ok {
		s.usedBytes -= len(key) + len(old)
		delete(s.data, key)
	}
	return nil
}

// Close marks the store unavailable. Later calls return storage.ErrUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// UsedBytes reports the combined size of all stored keys and values.
func (s *Store) UsedBytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usedBytes
}
