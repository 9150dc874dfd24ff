package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// --- Default Config Tests ---

func TestDefaultConfig_HasNoInterval(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.AppSettings.WorkerIntervalInSec != 0 {
		t.Errorf("expected no default interval, got %d", cfg.AppSettings.WorkerIntervalInSec)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval from defaults, got %v", err)
	}
}

func TestDefaultConfig_PublisherDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Publisher.Has("log") || cfg.Publisher.Has("kafka") {
		t.Errorf("expected only log publisher by default, got %v", cfg.Publisher.Types)
	}
	if cfg.Publisher.Redis.KeyPrefix != "HEARTBEAT:" {
		t.Errorf("expected Redis.KeyPrefix='HEARTBEAT:', got %q", cfg.Publisher.Redis.KeyPrefix)
	}
	if cfg.Environment != DefaultEnvironment {
		t.Errorf("expected Environment=%q, got %q", DefaultEnvironment, cfg.Environment)
	}
}

// --- Parse Tests ---

func TestParse_ValidInterval(t *testing.T) {
	cfg, err := Parse([]byte(`{"AppSettings": {"WorkerIntervalInSec": 5}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.AppSettings.WorkerIntervalInSec != 5 {
		t.Errorf("expected interval 5, got %d", cfg.AppSettings.WorkerIntervalInSec)
	}
	if cfg.AppSettings.Interval() != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.AppSettings.Interval())
	}
	if cfg.AppSettings.ServiceName != "WorkerService" {
		t.Errorf("expected default service name, got %q", cfg.AppSettings.ServiceName)
	}
}

func TestParse_IntervalValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"zero", `{"AppSettings": {"WorkerIntervalInSec": 0}}`, ErrInvalidInterval},
		{"negative", `{"AppSettings": {"WorkerIntervalInSec": -5}}`, ErrInvalidInterval},
		{"absent key", `{"AppSettings": {"ServiceName": "x"}}`, ErrMissingInterval},
		{"absent section", `{}`, ErrMissingInterval},
		{"fractional", `{"AppSettings": {"WorkerIntervalInSec": 1.5}}`, ErrInvalidInterval},
		{"string", `{"AppSettings": {"WorkerIntervalInSec": "ten"}}`, ErrInvalidInterval},
		{"overflows duration", `{"AppSettings": {"WorkerIntervalInSec": 18446744074}}`, ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got cfg=%+v err=%v", tt.wantErr, cfg, err)
			}
		})
	}
}

func TestParse_LargestInterval(t *testing.T) {
	cfg, err := Parse([]byte(fmt.Sprintf(`{"AppSettings": {"WorkerIntervalInSec": %d}}`, MaxIntervalSec)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppSettings.Interval() <= 0 {
		t.Errorf("Interval() = %v, want positive", cfg.AppSettings.Interval())
	}
}

func TestParse_ShutdownTimeoutOverflow(t *testing.T) {
	_, err := Parse([]byte(`{"AppSettings": {"WorkerIntervalInSec": 5, "ShutdownTimeoutSec": 18446744074}}`))
	if err == nil {
		t.Error("expected error for a shutdown timeout that overflows a duration")
	}
}

func TestParse_KeepsDefaultsForUnsetFields(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"AppSettings": {"WorkerIntervalInSec": 10},
		"Logging": {"Level": "debug", "Console": false}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Console {
		t.Error("expected Console=false to override default")
	}
	if cfg.Logging.MaxSizeMB != 10 {
		t.Errorf("expected default MaxSizeMB=10, got %d", cfg.Logging.MaxSizeMB)
	}
}

func TestParse_KafkaTimeout(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"AppSettings": {"WorkerIntervalInSec": 10},
		"Publisher": {"Types": ["kafka"], "Kafka": {"Brokers": ["k1:9092"], "Timeout": "3s"}}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Publisher.Kafka.Timeout != 3*time.Second {
		t.Errorf("expected Timeout=3s, got %v", cfg.Publisher.Kafka.Timeout)
	}
	if cfg.Publisher.Kafka.Topic != "service-heartbeat" {
		t.Errorf("expected default topic, got %q", cfg.Publisher.Kafka.Topic)
	}
}

func TestParse_PublisherValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown type", `{"AppSettings": {"WorkerIntervalInSec": 1}, "Publisher": {"Types": ["smtp"]}}`, "unknown publisher type"},
		{"redis without address", `{"AppSettings": {"WorkerIntervalInSec": 1}, "Publisher": {"Types": ["redis"]}}`, "Redis.Address"},
		{"kafka without brokers", `{"AppSettings": {"WorkerIntervalInSec": 1}, "Publisher": {"Types": ["kafka"]}}`, "Kafka.Brokers"},
		{"file without path", `{"AppSettings": {"WorkerIntervalInSec": 1}, "Publisher": {"Types": ["file"], "File": {"FilePath": ""}}}`, "File.FilePath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"AppSettings": `))
	if err == nil || !strings.Contains(err.Error(), "failed to parse config JSON") {
		t.Errorf("expected parse error, got %v", err)
	}
}

// --- Load Tests ---

func TestLoadWithEnv_EnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "appsettings.json", `{"AppSettings": {"WorkerIntervalInSec": 60, "ServiceName": "Base"}}`)
	writeFile(t, dir, "appsettings.Development.json", `{"AppSettings": {"WorkerIntervalInSec": 2}}`)

	cfg, err := LoadWithEnv(base, envMap(map[string]string{"WORKERSERVICE_ENVIRONMENT": "Development"}))
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if cfg.Environment != "Development" {
		t.Errorf("expected Environment=Development, got %q", cfg.Environment)
	}
	if cfg.AppSettings.WorkerIntervalInSec != 2 {
		t.Errorf("expected overlay interval 2, got %d", cfg.AppSettings.WorkerIntervalInSec)
	}
	if cfg.AppSettings.ServiceName != "Base" {
		t.Errorf("expected base ServiceName kept, got %q", cfg.AppSettings.ServiceName)
	}
}

func TestLoadWithEnv_EnvironmentVariablesWin(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "appsettings.json", `{"AppSettings": {"WorkerIntervalInSec": 60}}`)

	cfg, err := LoadWithEnv(base, envMap(map[string]string{
		"AppSettings__WorkerIntervalInSec": "7",
		"Logging__Level":                   "warn",
		"Publisher__Types":                 "log, redis",
		"Publisher__Redis__Address":        "127.0.0.1:6379",
	}))
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if cfg.AppSettings.WorkerIntervalInSec != 7 {
		t.Errorf("expected env interval 7, got %d", cfg.AppSettings.WorkerIntervalInSec)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected Level=warn, got %q", cfg.Logging.Level)
	}
	if !cfg.Publisher.Has("redis") || cfg.Publisher.Redis.Address != "127.0.0.1:6379" {
		t.Errorf("expected redis publisher configured, got %+v", cfg.Publisher)
	}
}

func TestLoadWithEnv_InvalidIntervalFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "appsettings.json", `{"AppSettings": {"WorkerIntervalInSec": 60}}`)

	for _, v := range []string{"0", "-5", "abc"} {
		_, err := LoadWithEnv(base, envMap(map[string]string{"AppSettings__WorkerIntervalInSec": v}))
		if !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("value %q: expected ErrInvalidInterval, got %v", v, err)
		}
	}
}

func TestLoadWithEnv_MissingFileIsMissingInterval(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "appsettings.json"), envMap(nil))
	if !errors.Is(err, ErrMissingInterval) {
		t.Fatalf("expected ErrMissingInterval, got %v", err)
	}
	if !strings.Contains(err.Error(), "no configuration source found") {
		t.Errorf("expected source hint in error, got %v", err)
	}
}

func TestEnvironmentName(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"none", nil, DefaultEnvironment},
		{"primary", map[string]string{"WORKERSERVICE_ENVIRONMENT": "Staging"}, "Staging"},
		{"fallback", map[string]string{"APP_ENVIRONMENT": "Development"}, "Development"},
		{"primary wins", map[string]string{"WORKERSERVICE_ENVIRONMENT": "Staging", "APP_ENVIRONMENT": "Development"}, "Staging"},
		{"blank ignored", map[string]string{"WORKERSERVICE_ENVIRONMENT": "  ", "APP_ENVIRONMENT": "Development"}, "Development"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnvironmentName(envMap(tt.env)); got != tt.want {
				t.Errorf("EnvironmentName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOverlayPath(t *testing.T) {
	got := OverlayPath(filepath.Join("conf", "appsettings.json"), "Development")
	want := filepath.Join("conf", "appsettings.Development.json")
	if got != want {
		t.Errorf("OverlayPath() = %q, want %q", got, want)
	}
}

func TestLoadLogging_IgnoresBrokenInterval(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "appsettings.json", `{"AppSettings": {"WorkerIntervalInSec": 0}, "Logging": {"Level": "error"}}`)

	lc, err := LoadLogging(base, envMap(nil))
	if err != nil {
		t.Fatalf("LoadLogging failed: %v", err)
	}
	if lc.Level != "error" {
		t.Errorf("expected Level=error, got %q", lc.Level)
	}
}
