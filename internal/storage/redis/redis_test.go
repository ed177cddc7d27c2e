package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goodtune/toolquota/internal/config"
	"github.com/goodtune/toolquota/internal/storage"
	"github.com/goodtune/toolquota/internal/storage/storagetest"
)

func testConfig(addr string) config.RedisConfig {
	return config.RedisConfig{
		Host:         addr, // Full address "host:port"
		Port:         0,    // Not used when host contains port
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
		KeyPrefix:    "toolquota:",
	}
}

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	store, err := Open(testConfig(mr.Addr()))
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}

	return store, mr
}

func TestStoreConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		store, _ := setupTestStore(t)
		return store
	})
}

func TestStore_KeyPrefix(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Set(ctx, "tool_usage_bmi-calculator", `{"count":1,"resetDate":"2026-10-15"}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := mr.Get("toolquota:tool_usage_bmi-calculator")
	if err != nil {
		t.Fatalf("expected prefixed key in redis: %v", err)
	}
	if got != `{"count":1,"resetDate":"2026-10-15"}` {
		t.Errorf("Expected stored record, got %s", got)
	}

	if mr.Exists("tool_usage_bmi-calculator") {
		t.Error("Expected unprefixed key to be absent")
	}
}

func TestStore_NoExpiry(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if err := store.Set(context.Background(), "onboarding_completed", "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if ttl := mr.TTL("toolquota:onboarding_completed"); ttl != 0 {
		t.Errorf("Expected no TTL, got %v", ttl)
	}
}

func TestStore_ServerDown(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	mr.Close()

	if _, err := store.Get(context.Background(), "k"); err == nil || errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected connection error, got %v", err)
	}
	if err := store.Set(context.Background(), "k", "v"); err == nil {
		t.Fatal("Expected Set to fail with server down")
	}
}

func TestOpen_InvalidTimeout(t *testing.T) {
	cfg := testConfig("127.0.0.1:0")
	cfg.DialTimeout = "soon"

	if _, err := Open(cfg); err == nil {
		t.Fatal("Expected error for invalid dial_timeout")
	}
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(addr)
	cfg.DialTimeout = "200ms"

	if _, err := Open(cfg); err == nil {
		t.Fatal("Expected error connecting to stopped server")
	}
}
