package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"workerservice/internal/logger"
)

// BaseFileName is the configuration file looked up next to the executable.
const BaseFileName = "appsettings.json"

// EnvironmentVariables are consulted in order to name the running environment.
var EnvironmentVariables = []string{"WORKERSERVICE_ENVIRONMENT", "APP_ENVIRONMENT"}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// rawConfig is used for JSON unmarshaling. The interval is a pointer so that
// an absent key can be told apart from an explicit zero.
type rawConfig struct {
	AppSettings rawAppSettings     `json:"AppSettings"`
	Logging     logger.Config      `json:"Logging"`
	Publisher   rawPublisherConfig `json:"Publisher"`
}

type rawAppSettings struct {
	ServiceName         string `json:"ServiceName"`
	DisplayName         string `json:"DisplayName"`
	Description         string `json:"Description"`
	WorkerIntervalInSec *int   `json:"WorkerIntervalInSec"`
	ShutdownTimeoutSec  int    `json:"ShutdownTimeoutSec"`
}

type rawPublisherConfig struct {
	Types      []string       `json:"Types"`
	File       FileConfig     `json:"File"`
	Redis      RedisConfig    `json:"Redis"`
	Kafka      rawKafkaConfig `json:"Kafka"`
	SOCKSProxy SOCKSConfig    `json:"SocksProxy"`
}

type rawKafkaConfig struct {
	KafkaConfig
	Timeout string `json:"Timeout"`
}

func newRawConfig() *rawConfig {
	def := DefaultConfig()
	return &rawConfig{
		AppSettings: rawAppSettings{
			ServiceName:        def.AppSettings.ServiceName,
			DisplayName:        def.AppSettings.DisplayName,
			Description:        def.AppSettings.Description,
			ShutdownTimeoutSec: def.AppSettings.ShutdownTimeoutSec,
		},
		Logging: def.Logging,
		Publisher: rawPublisherConfig{
			Types:      def.Publisher.Types,
			File:       def.Publisher.File,
			Redis:      def.Publisher.Redis,
			Kafka:      rawKafkaConfig{KafkaConfig: def.Publisher.Kafka, Timeout: def.Publisher.Kafka.Timeout.String()},
			SOCKSProxy: def.Publisher.SOCKSProxy,
		},
	}
}

// EnvironmentName returns the first non-empty environment variable from
// EnvironmentVariables, or DefaultEnvironment.
func EnvironmentName(lookup LookupFunc) string {
	for _, key := range EnvironmentVariables {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return DefaultEnvironment
}

// Load reads path, the optional appsettings.<Environment>.json next to it and
// the process environment, and returns a validated Config.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	env := EnvironmentName(lookup)
	raw, sources, err := decodeLayers(path, env, lookup)
	if err != nil {
		return nil, err
	}
	return build(raw, env, sources)
}

// Parse parses a single JSON document without environment overlays.
func Parse(data []byte) (*Config, error) {
	raw := newRawConfig()
	if err := unmarshalInto(raw, data); err != nil {
		return nil, err
	}
	return build(raw, DefaultEnvironment, []string{"<inline>"})
}

// LoadLogging returns only the Logging section. It does not validate the rest
// of the file so a broken AppSettings edit cannot block a logging reload.
func LoadLogging(path string, lookup LookupFunc) (logger.Config, error) {
	raw, _, err := decodeLayers(path, EnvironmentName(lookup), lookup)
	if err != nil {
		return logger.Config{}, err
	}
	return raw.Logging, nil
}

// OverlayPath returns the environment-specific file that sits next to path.
func OverlayPath(path, env string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + env + ext
}

func decodeLayers(path, env string, lookup LookupFunc) (*rawConfig, []string, error) {
	raw := newRawConfig()
	var sources []string

	for _, p := range []string{path, OverlayPath(path, env)} {
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := unmarshalInto(raw, data); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p, err)
		}
		sources = append(sources, p)
	}

	applied, err := applyEnvOverrides(raw, lookup)
	if err != nil {
		return nil, nil, err
	}
	if applied {
		sources = append(sources, "environment")
	}
	return raw, sources, nil
}

func unmarshalInto(raw *rawConfig, data []byte) error {
	if err := json.Unmarshal(data, raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && strings.HasSuffix(typeErr.Field, "WorkerIntervalInSec") {
			return fmt.Errorf("%w: %v", ErrInvalidInterval, err)
		}
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

var envOverrides = map[string]func(*rawConfig, string) error{
	"AppSettings__ServiceName": func(r *rawConfig, v string) error {
		r.AppSettings.ServiceName = v
		return nil
	},
	"AppSettings__WorkerIntervalInSec": func(r *rawConfig, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidInterval, v)
		}
		r.AppSettings.WorkerIntervalInSec = &n
		return nil
	},
	"AppSettings__ShutdownTimeoutSec": func(r *rawConfig, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid AppSettings__ShutdownTimeoutSec %q: %w", v, err)
		}
		r.AppSettings.ShutdownTimeoutSec = n
		return nil
	},
	"Logging__Level": func(r *rawConfig, v string) error {
		r.Logging.Level = v
		return nil
	},
	"Logging__FilePath": func(r *rawConfig, v string) error {
		r.Logging.FilePath = v
		return nil
	},
	"Logging__Console": func(r *rawConfig, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid Logging__Console %q: %w", v, err)
		}
		r.Logging.Console = b
		return nil
	},
	"Publisher__Types": func(r *rawConfig, v string) error {
		r.Publisher.Types = splitList(v)
		return nil
	},
	"Publisher__Redis__Address": func(r *rawConfig, v string) error {
		r.Publisher.Redis.Address = v
		return nil
	},
	"Publisher__Kafka__Brokers": func(r *rawConfig, v string) error {
		r.Publisher.Kafka.Brokers = splitList(v)
		return nil
	},
}

func applyEnvOverrides(raw *rawConfig, lookup LookupFunc) (bool, error) {
	keys := make([]string, 0, len(envOverrides))
	for k := range envOverrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	applied := false
	for _, k := range keys {
		v, ok := lookup(k)
		if !ok {
			continue
		}
		if err := envOverrides[k](raw, v); err != nil {
			return false, err
		}
		applied = true
	}
	return applied, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func build(raw *rawConfig, env string, sources []string) (*Config, error) {
	if raw.AppSettings.WorkerIntervalInSec == nil {
		if len(sources) == 0 {
			return nil, fmt.Errorf("%w (no configuration source found)", ErrMissingInterval)
		}
		return nil, fmt.Errorf("%w (sources: %s)", ErrMissingInterval, strings.Join(sources, ", "))
	}

	cfg := &Config{
		AppSettings: AppSettings{
			ServiceName:         raw.AppSettings.ServiceName,
			DisplayName:         raw.AppSettings.DisplayName,
			Description:         raw.AppSettings.Description,
			WorkerIntervalInSec: *raw.AppSettings.WorkerIntervalInSec,
			ShutdownTimeoutSec:  raw.AppSettings.ShutdownTimeoutSec,
		},
		Logging: raw.Logging,
		Publisher: PublisherConfig{
			Types:      raw.Publisher.Types,
			File:       raw.Publisher.File,
			Redis:      raw.Publisher.Redis,
			Kafka:      raw.Publisher.Kafka.KafkaConfig,
			SOCKSProxy: raw.Publisher.SOCKSProxy,
		},
		Environment: env,
	}

	if raw.Publisher.Kafka.Timeout != "" {
		d, err := time.ParseDuration(raw.Publisher.Kafka.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid Publisher.Kafka.Timeout duration: %w", err)
		}
		cfg.Publisher.Kafka.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
