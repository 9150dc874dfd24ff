package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"workerservice/internal/config"
)

func TestWriteStartupErrorFile_RecordsError(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteStartupErrorFile(dir, config.ErrMissingInterval)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, StartupErrorFileName) {
		t.Errorf("path = %s", path)
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("failed to read %s: %v", path, readErr)
	}
	content := string(data)
	if !strings.Contains(content, "STARTUP ERROR") {
		t.Errorf("expected STARTUP ERROR label, got:\n%s", content)
	}
	if !strings.Contains(content, "WorkerIntervalInSec is required") {
		t.Errorf("expected error message, got:\n%s", content)
	}
}

func TestWriteStartupErrorFile_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "WorkerService")

	path, err := WriteStartupErrorFile(dir, errors.New("test error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("directory not created or file not written: %v", readErr)
	}
	if !strings.Contains(string(data), "test error") {
		t.Errorf("expected error message, got: %s", data)
	}
}

func TestWriteStartupErrorFile_KeepsOnlyLatest(t *testing.T) {
	dir := t.TempDir()

	WriteStartupErrorFile(dir, errors.New("first error"))
	path, _ := WriteStartupErrorFile(dir, errors.New("second error"))

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "first error") {
		t.Error("expected first error to be overwritten")
	}
	if !strings.Contains(string(data), "second error") {
		t.Errorf("expected second error in file, got: %s", data)
	}
}

func TestWriteStartupErrorFile_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteStartupErrorFile(file, errors.New("x")); err == nil {
		t.Error("expected error when the directory is a file")
	}
}
