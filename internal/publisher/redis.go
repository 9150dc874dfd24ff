package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"workerservice/internal/config"
	"workerservice/internal/heartbeat"
	"workerservice/internal/network"
)

// missedBeats is how many intervals a liveness key survives without a refresh.
const missedBeats = 3

// RedisPublisher stores the latest beat under <prefix><service> with a TTL of
// a few intervals, so the key disappears when the worker stops beating.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisPublisher creates a RedisPublisher. The connection is established
// lazily on the first beat.
func NewRedisPublisher(cfg config.RedisConfig, socks config.SOCKSConfig, interval time.Duration) (*RedisPublisher, error) {
	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	dial, err := network.ContextDialFunc(socks)
	if err != nil {
		return nil, err
	}
	if dial != nil {
		opts.Dialer = dial
	}

	return &RedisPublisher{
		client: redis.NewClient(opts),
		prefix: cfg.KeyPrefix,
		ttl:    missedBeats * interval,
	}, nil
}

// Key returns the liveness key for a service.
func (p *RedisPublisher) Key(service string) string {
	return p.prefix + service
}

// Publish implements heartbeat.Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, beat *heartbeat.Beat) error {
	data, err := json.Marshal(beat)
	if err != nil {
		return fmt.Errorf("failed to marshal heartbeat: %w", err)
	}
	key := p.Key(beat.Service)
	if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil {
		return fmt.Errorf("Redis SET %s failed: %w", key, err)
	}
	return nil
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
