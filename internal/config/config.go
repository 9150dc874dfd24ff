// Package config provides configuration management for the worker service.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"workerservice/internal/logger"
)

var (
	// ErrMissingInterval is returned when AppSettings.WorkerIntervalInSec is absent.
	ErrMissingInterval = errors.New("AppSettings.WorkerIntervalInSec is required")
	// ErrInvalidInterval is returned when the interval is not a positive integer.
	ErrInvalidInterval = errors.New("AppSettings.WorkerIntervalInSec must be a positive integer")
)

// MaxIntervalSec is the largest interval a time.Duration can hold.
const MaxIntervalSec = math.MaxInt64 / int64(time.Second)

// DefaultEnvironment is reported when no environment variable names one.
const DefaultEnvironment = "Production"

// Config is the root configuration structure (appsettings.json).
type Config struct {
	AppSettings AppSettings     `json:"AppSettings"`
	Logging     logger.Config   `json:"Logging"`
	Publisher   PublisherConfig `json:"Publisher"`

	// Environment is resolved at load time, not read from the file.
	Environment string `json:"-"`
}

// AppSettings holds the service identity and the worker interval.
type AppSettings struct {
	ServiceName         string `json:"ServiceName"`
	DisplayName         string `json:"DisplayName"`
	Description         string `json:"Description"`
	WorkerIntervalInSec int    `json:"WorkerIntervalInSec"`
	ShutdownTimeoutSec  int    `json:"ShutdownTimeoutSec"`
}

// Interval returns the worker interval as a duration.
func (a AppSettings) Interval() time.Duration {
	return time.Duration(a.WorkerIntervalInSec) * time.Second
}

// ShutdownTimeout returns how long the hosted runner waits for the task to stop.
func (a AppSettings) ShutdownTimeout() time.Duration {
	return time.Duration(a.ShutdownTimeoutSec) * time.Second
}

// PublisherConfig selects where heartbeats go besides the log.
type PublisherConfig struct {
	Types      []string    `json:"Types"` // any of "log", "file", "redis", "kafka"
	File       FileConfig  `json:"File"`
	Redis      RedisConfig `json:"Redis"`
	Kafka      KafkaConfig `json:"Kafka"`
	SOCKSProxy SOCKSConfig `json:"SocksProxy"`
}

// Has reports whether the publisher type is enabled.
func (p PublisherConfig) Has(kind string) bool {
	for _, t := range p.Types {
		if strings.EqualFold(t, kind) {
			return true
		}
	}
	return false
}

// FileConfig contains settings for the JSON-lines heartbeat file.
type FileConfig struct {
	FilePath   string `json:"FilePath"`
	MaxSizeMB  int    `json:"MaxSizeMB"`
	MaxBackups int    `json:"MaxBackups"`
}

// RedisConfig contains settings for the Redis liveness key.
type RedisConfig struct {
	Address   string `json:"Address"`
	Password  string `json:"Password"`
	DB        int    `json:"DB"`
	KeyPrefix string `json:"KeyPrefix"`
}

// KafkaConfig contains Kafka connection settings.
type KafkaConfig struct {
	Brokers       []string      `json:"Brokers"`
	Topic         string        `json:"Topic"`
	RequiredAcks  int           `json:"RequiredAcks"`
	MaxRetries    int           `json:"MaxRetries"`
	Timeout       time.Duration `json:"-"`
	EnableTLS     bool          `json:"EnableTLS"`
	TLSCertFile   string        `json:"TLSCertFile"`
	TLSKeyFile    string        `json:"TLSKeyFile"`
	TLSCAFile     string        `json:"TLSCAFile"`
	SASLEnabled   bool          `json:"SASLEnabled"`
	SASLMechanism string        `json:"SASLMechanism"`
	SASLUser      string        `json:"SASLUser"`
	SASLPassword  string        `json:"SASLPassword"`
}

// SOCKSConfig contains SOCKS5 proxy settings for the network publishers.
type SOCKSConfig struct {
	Host string `json:"Host"`
	Port int    `json:"Port"`
}

// DefaultConfig returns a configuration with every default filled in except
// the worker interval, which has no default.
func DefaultConfig() *Config {
	return &Config{
		AppSettings: AppSettings{
			ServiceName:        "WorkerService",
			DisplayName:        "Worker Service",
			Description:        "Runs a periodic heartbeat worker.",
			ShutdownTimeoutSec: 30,
		},
		Logging: logger.DefaultConfig(),
		Publisher: PublisherConfig{
			Types: []string{"log"},
			File: FileConfig{
				FilePath:   "logs/heartbeat.jsonl",
				MaxSizeMB:  10,
				MaxBackups: 3,
			},
			Redis: RedisConfig{
				DB:        0,
				KeyPrefix: "HEARTBEAT:",
			},
			Kafka: KafkaConfig{
				Topic:        "service-heartbeat",
				RequiredAcks: 1,
				MaxRetries:   3,
				Timeout:      10 * time.Second,
			},
		},
		Environment: DefaultEnvironment,
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.AppSettings.WorkerIntervalInSec <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidInterval, c.AppSettings.WorkerIntervalInSec)
	}
	if int64(c.AppSettings.WorkerIntervalInSec) > MaxIntervalSec {
		return fmt.Errorf("%w, got %d (maximum %d)", ErrInvalidInterval, c.AppSettings.WorkerIntervalInSec, MaxIntervalSec)
	}
	if strings.TrimSpace(c.AppSettings.ServiceName) == "" {
		return errors.New("AppSettings.ServiceName must not be empty")
	}
	if c.AppSettings.ShutdownTimeoutSec < 0 || int64(c.AppSettings.ShutdownTimeoutSec) > MaxIntervalSec {
		return fmt.Errorf("AppSettings.ShutdownTimeoutSec must be between 0 and %d, got %d", MaxIntervalSec, c.AppSettings.ShutdownTimeoutSec)
	}

	for _, t := range c.Publisher.Types {
		switch strings.ToLower(t) {
		case "log":
		case "file":
			if c.Publisher.File.FilePath == "" {
				return errors.New("Publisher.File.FilePath is required for the file publisher")
			}
		case "redis":
			if c.Publisher.Redis.Address == "" {
				return errors.New("Publisher.Redis.Address is required for the redis publisher")
			}
		case "kafka":
			if len(c.Publisher.Kafka.Brokers) == 0 || c.Publisher.Kafka.Topic == "" {
				return errors.New("Publisher.Kafka.Brokers and Publisher.Kafka.Topic are required for the kafka publisher")
			}
		default:
			return fmt.Errorf("unknown publisher type %q (supported: log, file, redis, kafka)", t)
		}
	}
	return nil
}
