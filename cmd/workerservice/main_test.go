package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"workerservice/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.BaseFileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietConfig(t *testing.T, interval string) string {
	t.Helper()
	logPath := filepath.ToSlash(filepath.Join(t.TempDir(), "log.txt"))
	return writeConfig(t, `{
		"AppSettings": {"ServiceName": "WorkerService"`+interval+`},
		"Logging": {"Level": "info", "FilePath": "`+logPath+`", "Console": false}
	}`)
}

func TestVersionCmd(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "workerservice dev") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := rootCmd()
	for _, name := range []string{"run", "host", "install", "uninstall", "version"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %s not registered", name)
		}
	}
	if cmd.PersistentFlags().Lookup("config") == nil || cmd.PersistentFlags().Lookup("poll-interval") == nil {
		t.Error("expected --config and --poll-interval flags")
	}
}

func TestBootstrap_MissingInterval(t *testing.T) {
	path := quietConfig(t, "")
	_, err := bootstrap(path, false)
	if !errors.Is(err, config.ErrMissingInterval) {
		t.Fatalf("expected ErrMissingInterval, got %v", err)
	}
}

func TestBootstrap_InvalidInterval(t *testing.T) {
	for _, interval := range []string{`, "WorkerIntervalInSec": 0`, `, "WorkerIntervalInSec": -5`} {
		_, err := bootstrap(quietConfig(t, interval), false)
		if !errors.Is(err, config.ErrInvalidInterval) {
			t.Errorf("%s: expected ErrInvalidInterval, got %v", interval, err)
		}
	}
}

func TestBootstrap_BuildsTask(t *testing.T) {
	a, err := bootstrap(quietConfig(t, `, "WorkerIntervalInSec": 2`), false)
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	defer a.close()

	tk, err := a.newTask(context.Background(), true)
	if err != nil {
		t.Fatalf("newTask failed: %v", err)
	}
	if tk.Name() != "WorkerService" || tk.Interval().Seconds() != 2 {
		t.Errorf("unexpected task %s every %v", tk.Name(), tk.Interval())
	}
	if a.publisher != nil {
		t.Errorf("log-only config should not open a sink, got %T", a.publisher)
	}
}

func TestReportStartupFailure_WritesFile(t *testing.T) {
	path := quietConfig(t, "")
	err := reportStartupFailure(path, config.ErrMissingInterval)
	if !errors.Is(err, config.ErrMissingInterval) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	data, readErr := os.ReadFile(filepath.Join(filepath.Dir(path), startupErrorDir, "startup-error.log"))
	if readErr != nil {
		t.Fatalf("startup error file not written: %v", readErr)
	}
	if !strings.Contains(string(data), "WorkerIntervalInSec") {
		t.Errorf("unexpected file content: %s", data)
	}
}
