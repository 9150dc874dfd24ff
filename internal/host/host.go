// Package host runs background services until the process is asked to shut
// down, then stops them within a deadline.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// DefaultShutdownTimeout bounds the time given to services to stop.
const DefaultShutdownTimeout = 30 * time.Second

// Replaced in tests.
var (
	signalNotify = signal.Notify
	signalStop   = signal.Stop
)

// BackgroundService is a unit of work owned by a Host.
type BackgroundService interface {
	// Start must return once the service is running.
	Start(ctx context.Context) error
	// Stop must return before ctx expires.
	Stop(ctx context.Context) error
}

// exiter is implemented by services that can finish on their own.
type exiter interface {
	Done() <-chan struct{}
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Host) { h.log = log }
}

// WithSignals replaces the signals that trigger shutdown.
func WithSignals(sig ...os.Signal) Option {
	return func(h *Host) { h.signals = sig }
}

// WithShutdownTimeout sets how long services get to stop.
func WithShutdownTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d > 0 {
			h.shutdownTimeout = d
		}
	}
}

// Host starts services in registration order and stops them in reverse.
type Host struct {
	services        []BackgroundService
	log             zerolog.Logger
	signals         []os.Signal
	shutdownTimeout time.Duration
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{
		log:             zerolog.Nop(),
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Add registers a service. It must be called before Run.
func (h *Host) Add(s BackgroundService) {
	h.services = append(h.services, s)
}

// Run starts every service and blocks until a shutdown signal arrives, ctx
// is done, or a service finishes on its own. If a service fails to start,
// the ones already started are stopped and the start error is returned.
func (h *Host) Run(ctx context.Context) error {
	h.log.Info().Int("services", len(h.services)).Msg("Application starting")

	sigCh := make(chan os.Signal, 1)
	signalNotify(sigCh, h.signals...)
	defer signalStop(sigCh)

	for i, s := range h.services {
		if err := s.Start(ctx); err != nil {
			h.log.Error().Err(err).Int("service", i).Msg("Service failed to start")
			if stopErr := h.stop(i - 1); stopErr != nil {
				h.log.Warn().Err(stopErr).Msg("Errors while stopping started services")
			}
			return fmt.Errorf("starting service %d: %w", i, err)
		}
	}
	h.log.Info().Msg("Application started. Press Ctrl+C to shut down.")

	quit := make(chan struct{})
	exited := h.watchExits(quit)

	select {
	case sig := <-sigCh:
		h.log.Info().Str("signal", sig.String()).Msg("Application is shutting down")
	case <-ctx.Done():
		h.log.Info().Msg("Application is shutting down")
	case <-exited:
		h.log.Warn().Msg("A background service exited, shutting down")
	}
	close(quit)

	err := h.stop(len(h.services) - 1)
	h.log.Info().Msg("Application stopped")
	return err
}

func (h *Host) watchExits(quit <-chan struct{}) <-chan struct{} {
	exited := make(chan struct{}, len(h.services))
	for _, s := range h.services {
		e, ok := s.(exiter)
		if !ok {
			continue
		}
		go func(done <-chan struct{}) {
			select {
			case <-done:
				exited <- struct{}{}
			case <-quit:
			}
		}(e.Done())
	}
	return exited
}

func (h *Host) stop(from int) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := from; i >= 0; i-- {
		if err := h.services[i].Stop(ctx); err != nil {
			h.log.Error().Err(err).Int("service", i).Msg("Service failed to stop")
			errs = append(errs, fmt.Errorf("stopping service %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
