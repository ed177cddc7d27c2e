package storagetest

import (
	"context"
	"sync"

	"github.com/goodtune/toolquota/internal/storage"
)

// Failing wraps a store and fails selected operations on demand. It stands in
// for disabled or full browser storage in tests.
type Failing struct {
	inner storage.Store

	mu       sync.Mutex
	failGet  error
	failSet  error
	getCalls int
	setCalls int
}

// NewFailing wraps inner. All operations pass through until a failure is set.
func NewFailing(inner storage.Store) *Failing {
	return &Failing{inner: inner}
}

// FailGets makes every Get return err. A nil err restores pass-through.
func (f *Failing) FailGets(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = err
}

// FailSets makes every Set return err. A nil err restores pass-through.
func (f *Failing) FailSets(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = err
}

// Calls returns how many Get and Set calls reached the wrapper.
func (f *Failing) Calls() (gets, sets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.setCalls
}

func (f *Failing) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	f.getCalls++
	err := f.failGet
	f.mu.Unlock()

	if err != nil {
		return "", err
	}
	return f.inner.Get(ctx, key)
}

func (f *Failing) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.setCalls++
	err := f.failSet
	f.mu.Unlock()

	if err != nil {
		return err
	}
	return f.inner.Set(ctx, key, value)
}

func (f *Failing) Delete(ctx context.Context, key string) error {
	return f.inner.Delete(ctx, key)
}

func (f *Failing) Close() error {
	return f.inner.Close()
}
