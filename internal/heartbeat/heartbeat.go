// Package heartbeat provides the worker's periodic action: a timestamped
// liveness beat that is logged and optionally published to external sinks.
package heartbeat

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Beat is one heartbeat emitted by the worker.
type Beat struct {
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Hostname    string    `json:"hostname"`
	Platform    string    `json:"platform,omitempty"`
	PID         int32     `json:"pid"`
	IntervalSec int       `json:"interval_sec"`
	Tick        uint64    `json:"tick"`
	Timestamp   time.Time `json:"timestamp"`

	BootTime         time.Time `json:"boot_time,omitempty"`
	ProcessRSSBytes  uint64    `json:"process_rss_bytes,omitempty"`
	ProcessUptimeSec float64   `json:"process_uptime_sec,omitempty"`
}

// Publisher delivers beats to a sink.
type Publisher interface {
	Publish(ctx context.Context, beat *Beat) error
}

// Probe fills host and process facts into a beat. Implementations must be
// fast and must not fail the beat: missing facts are left at zero.
type Probe interface {
	Fill(ctx context.Context, beat *Beat)
}

// Config describes the heartbeat.
type Config struct {
	Service     string
	Environment string
	Interval    time.Duration
}

// Heartbeat is the worker action.
type Heartbeat struct {
	cfg       Config
	log       zerolog.Logger
	clock     clock.Clock
	probe     Probe
	publisher Publisher
	ticks     atomic.Uint64
}

// Option configures a Heartbeat.
type Option func(*Heartbeat)

// WithClock replaces the wall clock used for beat timestamps.
func WithClock(c clock.Clock) Option {
	return func(h *Heartbeat) { h.clock = c }
}

// WithProbe sets the source of host and process facts.
func WithProbe(p Probe) Option {
	return func(h *Heartbeat) { h.probe = p }
}

// WithPublisher sets where beats are published after being logged.
func WithPublisher(p Publisher) Option {
	return func(h *Heartbeat) { h.publisher = p }
}

// New creates a Heartbeat.
func New(cfg Config, log zerolog.Logger, opts ...Option) *Heartbeat {
	h := &Heartbeat{
		cfg:   cfg,
		log:   log,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Ticks returns how many beats have been produced.
func (h *Heartbeat) Ticks() uint64 { return h.ticks.Load() }

// Run produces one beat. It has the signature of task.Action.
func (h *Heartbeat) Run(ctx context.Context) error {
	beat := &Beat{
		Service:     h.cfg.Service,
		Environment: h.cfg.Environment,
		IntervalSec: int(h.cfg.Interval / time.Second),
		Tick:        h.ticks.Add(1),
		Timestamp:   h.clock.Now(),
	}
	if h.probe != nil {
		h.probe.Fill(ctx, beat)
	}

	h.log.Info().
		Int("interval_sec", beat.IntervalSec).
		Str("environment", beat.Environment).
		Time("at", beat.Timestamp).
		Uint64("tick", beat.Tick).
		Uint64("rss_bytes", beat.ProcessRSSBytes).
		Msgf("Worker running every %d sec in %s environment", beat.IntervalSec, beat.Environment)

	if h.publisher == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, h.publishTimeout())
	defer cancel()
	if err := h.publisher.Publish(pubCtx, beat); err != nil {
		return fmt.Errorf("publish heartbeat %d: %w", beat.Tick, err)
	}
	return nil
}

// publishTimeout keeps a tick shorter than the interval.
func (h *Heartbeat) publishTimeout() time.Duration {
	const max = 10 * time.Second
	d := h.cfg.Interval / 2
	if d <= 0 || d > max {
		return max
	}
	return d
}
