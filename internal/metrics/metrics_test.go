package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextfile(t *testing.T) {
	UsesRecorded.WithLabelValues("metrics-test-tool").Inc()
	StorageFailures.WithLabelValues(OpWrite).Inc()

	path := filepath.Join(t.TempDir(), "toolquota.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`toolquota_uses_recorded_total{tool="metrics-test-tool"}`,
		`toolquota_storage_failures_total{op="write"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %s", want)
		}
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "toolquota.prom")
	if err := WriteTextfile(path); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}
