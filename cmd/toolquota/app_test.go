package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/toolquota/internal/config"
	"github.com/goodtune/toolquota/internal/storage"
	"github.com/goodtune/toolquota/internal/storage/bolt"
	"github.com/goodtune/toolquota/internal/storage/cache"
	"github.com/goodtune/toolquota/internal/storage/memory"
	"github.com/goodtune/toolquota/internal/usage"
	"github.com/rs/zerolog"
)

func TestOpenStorageBackends(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		cfg       config.StorageConfig
		wantCache bool
	}{
		{"bolt cached", config.StorageConfig{Type: "bolt", Path: filepath.Join(dir, "a.bolt"), CacheSize: 8}, true},
		{"bolt uncached", config.StorageConfig{Type: "bolt", Path: filepath.Join(dir, "b.bolt")}, false},
		{"default type is bolt", config.StorageConfig{Path: filepath.Join(dir, "c.bolt")}, false},
		{"sqlite cached", config.StorageConfig{Type: "sqlite", Path: filepath.Join(dir, "d.db"), CacheSize: 8}, true},
		{"memory ignores cache", config.StorageConfig{Type: "memory", CacheSize: 8}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := openStorage(tt.cfg, zerolog.Nop())
			if err != nil {
				t.Fatalf("openStorage failed: %v", err)
			}
			defer store.Close()

			if _, ok := store.(*cache.Store); ok != tt.wantCache {
				t.Errorf("cached = %v, want %v", ok, tt.wantCache)
			}
			if tt.cfg.Type == "memory" {
				if _, ok := store.(*memory.Store); !ok {
					t.Errorf("expected *memory.Store, got %T", store)
				}
			}

			ctx := context.Background()
			if err := store.Set(ctx, "k", "v"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := store.Get(ctx, "k")
			if err != nil || got != "v" {
				t.Fatalf("Get = %q, %v; want v", got, err)
			}
			if _, err := store.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestOpenStorageUnsupported(t *testing.T) {
	if _, err := openStorage(config.StorageConfig{Type: "etcd"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unsupported storage type")
	}
}

func TestFindUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `storage:
  type: sqlite
  redis:
    password: secret
    hots: typo
usage:
  daily_limit: 5
  dialy_limit: 7
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	unknown, err := findUnknownKeys(path)
	if err != nil {
		t.Fatalf("findUnknownKeys failed: %v", err)
	}

	want := []string{"storage.redis.hots", "usage.dialy_limit"}
	if strings.Join(unknown, ",") != strings.Join(want, ",") {
		t.Errorf("unknown keys = %v, want %v", unknown, want)
	}
}

func TestFindUnknownKeysMissingFile(t *testing.T) {
	unknown, err := findUnknownKeys(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("expected no unknown keys, got %v", unknown)
	}
}

func TestDumpConfigHighlightsModified(t *testing.T) {
	color.NoColor = true

	defaults := getDefaultConfig()
	cfg := *defaults
	cfg.Usage.DailyLimit = 3
	cfg.Storage.Redis.Password = "hunter2"

	var buf bytes.Buffer
	dumpConfig(&buf, &cfg, defaults)
	out := buf.String()

	if !strings.Contains(out, "daily_limit = 3  (modified from default: 10)") {
		t.Errorf("expected modified daily_limit in dump, got:\n%s", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("password leaked into dump")
	}
	if !strings.Contains(out, "type = bolt\n") {
		t.Errorf("expected default storage type in dump, got:\n%s", out)
	}
}

func TestPrintStatus(t *testing.T) {
	color.NoColor = true

	now := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	status := usage.Status{
		ToolID:         "bmi",
		Count:          10,
		RemainingUses:  0,
		IsLimitReached: true,
		NextReset:      usage.NextReset(now),
	}

	var buf bytes.Buffer
	printStatus(&buf, status, 10, now)

	want := "bmi: 0/10 uses remaining today (resets in 2h0m0s at 2024-03-11 00:00)\n"
	if buf.String() != want {
		t.Errorf("printStatus = %q, want %q", buf.String(), want)
	}
}

// writeTestConfig writes a config using a bolt file in a temp dir and
// returns the config path and the bolt path.
func writeTestConfig(t *testing.T, dailyLimit int) (string, string) {
	t.Helper()
	dir := t.TempDir()
	boltPath := filepath.Join(dir, "toolquota.bolt")
	content := fmt.Sprintf(`storage:
  type: bolt
  path: %s
  cache_size: 0
usage:
  daily_limit: %d
logging:
  level: error
`, boltPath, dailyLimit)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path, boltPath
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	useForce = false
	validateDump = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"-c", cfgPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func storedCount(t *testing.T, boltPath, toolID string) int {
	t.Helper()
	store, err := bolt.Open(boltPath)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	defer store.Close()

	value, err := store.Get(context.Background(), usage.StorageKey(toolID))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var rec usage.Record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		t.Fatalf("decode record %q: %v", value, err)
	}
	return rec.Count
}

func TestUseRefusesAtLimit(t *testing.T) {
	cfgPath, boltPath := writeTestConfig(t, 2)

	for i := 0; i < 2; i++ {
		if _, err := runCLI(t, cfgPath, "use", "bmi"); err != nil {
			t.Fatalf("use %d failed: %v", i+1, err)
		}
	}

	out, err := runCLI(t, cfgPath, "use", "bmi")
	if !errors.Is(err, errLimitReached) {
		t.Fatalf("expected errLimitReached, got %v", err)
	}
	if !strings.Contains(out, "bmi: 0/2") {
		t.Errorf("expected exhausted status in output, got %q", out)
	}
	if got := storedCount(t, boltPath, "bmi"); got != 2 {
		t.Errorf("stored count after refused use = %d, want 2", got)
	}
}

func TestUseForceRecordsPastLimit(t *testing.T) {
	cfgPath, boltPath := writeTestConfig(t, 1)

	if _, err := runCLI(t, cfgPath, "use", "bmi"); err != nil {
		t.Fatalf("first use failed: %v", err)
	}
	out, err := runCLI(t, cfgPath, "use", "--force", "bmi")
	if err != nil {
		t.Fatalf("use --force failed: %v", err)
	}
	if !strings.Contains(out, "bmi: 0/1") {
		t.Errorf("expected exhausted status in output, got %q", out)
	}
	if got := storedCount(t, boltPath, "bmi"); got != 2 {
		t.Errorf("stored count after forced use = %d, want 2", got)
	}

	// --force does not stick to later invocations
	if _, err := runCLI(t, cfgPath, "use", "bmi"); !errors.Is(err, errLimitReached) {
		t.Fatalf("expected errLimitReached without --force, got %v", err)
	}
}

func TestStatusDoesNotConsume(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, 3)

	for i := 0; i < 2; i++ {
		out, err := runCLI(t, cfgPath, "status", "qr-code-generator")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(out, "qr-code-generator: 3/3") {
			t.Errorf("status output = %q, want full allowance", out)
		}
	}
}

func TestOnboardingCommands(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, 10)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"onboarding"}, "Onboarding will be shown"},
		{[]string{"onboarding", "complete"}, "Onboarding completed"},
		{[]string{"onboarding"}, "Onboarding already completed"},
		{[]string{"onboarding", "reset"}, "Onboarding marker cleared"},
		{[]string{"onboarding"}, "Onboarding will be shown"},
		{[]string{"onboarding", "skip"}, "Onboarding skipped"},
		{[]string{"onboarding"}, "Onboarding already completed"},
	}

	for i, step := range steps {
		out, err := runCLI(t, cfgPath, step.args...)
		if err != nil {
			t.Fatalf("step %d %v failed: %v", i, step.args, err)
		}
		if !strings.Contains(out, step.want) {
			t.Errorf("step %d %v output = %q, want %q", i, step.args, out, step.want)
		}
	}
}

func TestValidateMissingConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	out, err := runCLI(t, path, "validate")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "No configuration file at "+path) {
		t.Errorf("expected missing-file notice, got %q", out)
	}
	if strings.Contains(out, "Configuration is valid") {
		t.Errorf("missing file reported as valid config: %q", out)
	}
}

func TestValidateExistingConfigFile(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, 10)

	out, err := runCLI(t, cfgPath, "validate")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "Configuration is valid: "+cfgPath) {
		t.Errorf("expected valid-config message, got %q", out)
	}
}
