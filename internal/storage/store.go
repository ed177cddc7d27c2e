package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key has no value in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrQuotaExceeded is returned when a write would exceed the store's capacity.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")

	// ErrUnavailable is returned when the store cannot serve requests,
	// for example after Close or when the backing service is disabled.
	ErrUnavailable = errors.New("storage: unavailable")
)

// Store is a string key to string value store scoped to a single device.
//
// Implementations are synchronous: every call completes before it returns.
// Nothing here provides compare-and-swap, so two writers racing on the same
// key resolve as last-write-wins on the whole value.
type Store interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
