package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"workerservice/internal/logger"
)

func TestLoggingWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "appsettings.json", `{"AppSettings": {"WorkerIntervalInSec": 5}, "Logging": {"Level": "info"}}`)

	got := make(chan logger.Config, 4)
	w, err := NewLoggingWatcher(path, envMap(nil), zerolog.Nop(), func(lc logger.Config) {
		got <- lc
	})
	if err != nil {
		t.Fatalf("NewLoggingWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if !w.IsRunning() {
		t.Fatal("expected watcher to be running")
	}

	if err := os.WriteFile(path, []byte(`{"AppSettings": {"WorkerIntervalInSec": 5}, "Logging": {"Level": "debug"}}`), 0644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	select {
	case lc := <-got:
		if lc.Level != "debug" {
			t.Errorf("expected reloaded Level=debug, got %q", lc.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "appsettings.json", `{}`)

	called := make(chan struct{}, 1)
	w, err := NewFileWatcher(zerolog.Nop(), func() { called <- struct{}{} }, path)
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	writeFile(t, dir, "unrelated.json", `{}`)

	select {
	case <-called:
		t.Fatal("callback fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appsettings.json")
	w, err := NewFileWatcher(zerolog.Nop(), nil, path)
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if w.IsRunning() {
		t.Error("expected watcher stopped")
	}
}
