package publisher

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"workerservice/internal/config"
)

// New creates the publishers enabled in cfg. The "log" type adds no sink.
// New returns nil when nothing else is enabled.
func New(cfg config.PublisherConfig, interval time.Duration, log zerolog.Logger) (Publisher, error) {
	var created Multi

	for _, t := range cfg.Types {
		kind := strings.ToLower(t)
		var (
			p   Publisher
			err error
		)
		switch kind {
		case "log":
			continue
		case "file":
			p, err = NewFilePublisher(cfg.File)
			if err == nil {
				log.Info().Str("file_path", cfg.File.FilePath).Msg("Using file heartbeat publisher")
			}
		case "redis":
			p, err = NewRedisPublisher(cfg.Redis, cfg.SOCKSProxy, interval)
			if err == nil {
				log.Info().
					Str("redis_address", cfg.Redis.Address).
					Str("key_prefix", cfg.Redis.KeyPrefix).
					Msg("Using Redis heartbeat publisher")
			}
		case "kafka":
			p, err = NewKafkaPublisher(cfg.Kafka, cfg.SOCKSProxy)
			if err == nil {
				log.Info().
					Strs("brokers", cfg.Kafka.Brokers).
					Str("topic", cfg.Kafka.Topic).
					Msg("Using Kafka heartbeat publisher")
			}
		default:
			err = fmt.Errorf("unknown publisher type: %s (supported: log, file, redis, kafka)", t)
		}
		if err != nil {
			created.Close()
			return nil, fmt.Errorf("failed to create %s publisher: %w", kind, err)
		}
		created = append(created, p)
	}

	switch len(created) {
	case 0:
		return nil, nil
	case 1:
		return created[0], nil
	default:
		return created, nil
	}
}
