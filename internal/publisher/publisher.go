// Package publisher delivers heartbeats to external sinks: a rotating JSON
// lines file, a Redis liveness key and a Kafka topic.
package publisher

import (
	"context"
	"errors"

	"workerservice/internal/heartbeat"
)

// Publisher is a heartbeat sink that holds resources.
type Publisher interface {
	heartbeat.Publisher

	// Close releases any resources held by the publisher.
	Close() error
}

// Multi fans a beat out to every publisher. All publishers are tried; the
// errors are joined.
type Multi []Publisher

// Publish implements heartbeat.Publisher.
func (m Multi) Publish(ctx context.Context, beat *heartbeat.Beat) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, beat); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
