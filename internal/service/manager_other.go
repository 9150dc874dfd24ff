//go:build !windows
// +build !windows

package service

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// signalManager runs a service under a Unix service manager such as
// systemd, which asks for a stop with SIGTERM.
type signalManager struct {
	log     zerolog.Logger
	signals []os.Signal
}

// NewManager returns the service manager for this platform.
func NewManager(log zerolog.Logger) Manager {
	return &signalManager{log: log, signals: DefaultSignals}
}

// Run starts hooks and stops them on the first signal or when ctx is done.
// A second signal abandons a stop that is taking too long.
func (m *signalManager) Run(ctx context.Context, name string, hooks Hooks) error {
	sigCh := make(chan os.Signal, 1)
	signalNotify(sigCh, m.signals...)
	defer signalStop(sigCh)

	if err := hooks.Start(); err != nil {
		return err
	}
	m.log.Info().Str("service", name).Msg("Service running under service manager")

	select {
	case sig := <-sigCh:
		m.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
	}

	done := make(chan error, 1)
	go func() {
		done <- hooks.Stop()
	}()

	select {
	case err := <-done:
		return err
	case sig := <-sigCh:
		m.log.Warn().Str("signal", sig.String()).Msg("Received second signal, forcing exit")
		return nil
	}
}
