// Package storagetest holds helpers shared by the storage backend tests and
// by the packages that consume storage.Store.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/goodtune/toolquota/internal/storage"
)

// Opener returns a fresh, empty store. The store is closed by Run.
type Opener func(t *testing.T) storage.Store

// Run exercises the storage.Store contract against the stores returned by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()

		_, err := store.Get(context.Background(), "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("SetThenGet", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		if err := store.Set(ctx, "tool_usage_bmi-calculator", `{"count":3,"resetDate":"2026-10-15"}`); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		got, err := store.Get(ctx, "tool_usage_bmi-calculator")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != `{"count":3,"resetDate":"2026-10-15"}` {
			t.Errorf("Get = %q, want stored value", got)
		}
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		if err := store.Set(ctx, "onboarding_completed", "false"); err != nil {
			t.Fatalf("first Set failed: %v", err)
		}
		if err := store.Set(ctx, "onboarding_completed", "true"); err != nil {
			t.Fatalf("second Set failed: %v", err)
		}

		got, err := store.Get(ctx, "onboarding_completed")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "true" {
			t.Errorf("Get = %q, want %q", got, "true")
		}
	})

	t.Run("EmptyValue", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		if err := store.Set(ctx, "blank", ""); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(ctx, "blank")
		if err != nil {
			t.Fatalf("Get of empty value failed: %v", err)
		}
		if got != "" {
			t.Errorf("Get = %q, want empty string", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		if err := store.Set(ctx, "k", "v"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Get after Delete error = %v, want ErrNotFound", err)
		}
		if err := store.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete of missing key failed: %v", err)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		_ = store.Set(ctx, "tool_usage_a", "1")
		_ = store.Set(ctx, "tool_usage_b", "2")

		a, err := store.Get(ctx, "tool_usage_a")
		if err != nil || a != "1" {
			t.Errorf("Get(a) = %q, %v; want %q", a, err, "1")
		}
		b, err := store.Get(ctx, "tool_usage_b")
		if err != nil || b != "2" {
			t.Errorf("Get(b) = %q, %v; want %q", b, err, "2")
		}
	})
}
