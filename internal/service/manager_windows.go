//go:build windows
// +build windows

package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows/svc"
)

// Replaced in tests.
var svcRun = svc.Run

// stopTimeout is how long Execute waits for Stop before reporting Stopped.
const stopTimeout = 30 * time.Second

// scmManager runs a service under the Windows Service Control Manager.
type scmManager struct {
	log zerolog.Logger
}

// NewManager returns the service manager for this platform.
func NewManager(log zerolog.Logger) Manager {
	return &scmManager{log: log}
}

// Run blocks until the SCM stops the service. Errors from the Start and Stop
// hooks take precedence over the error returned by svc.Run.
func (m *scmManager) Run(ctx context.Context, name string, hooks Hooks) error {
	h := &handler{ctx: ctx, hooks: hooks, log: m.log}
	runErr := svcRun(name, h)
	if err := h.getError(); err != nil {
		return err
	}
	return runErr
}

type handler struct {
	ctx   context.Context
	hooks Hooks
	log   zerolog.Logger

	errMu sync.Mutex
	err   error
}

func (h *handler) setError(err error) {
	h.errMu.Lock()
	h.err = err
	h.errMu.Unlock()
}

func (h *handler) getError() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.err
}

// Execute implements svc.Handler.
func (h *handler) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}
	if err := h.hooks.Start(); err != nil {
		h.setError(err)
		changes <- svc.Status{State: svc.Stopped}
		return true, 1
	}
	changes <- svc.Status{State: svc.Running, Accepts: accepted}
	h.log.Info().Msg("Windows service started")

loop:
	for {
		select {
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
				// the SCM expects the status twice
				time.Sleep(100 * time.Millisecond)
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				h.log.Info().Msg("Received stop request from service control manager")
				break loop
			default:
				h.log.Warn().Int("cmd", int(c.Cmd)).Msg("Unexpected service control command")
			}
		case <-h.ctx.Done():
			break loop
		}
	}

	changes <- svc.Status{State: svc.StopPending}
	done := make(chan error, 1)
	go func() {
		done <- h.hooks.Stop()
	}()

	select {
	case err := <-done:
		if err != nil {
			h.setError(err)
			changes <- svc.Status{State: svc.Stopped}
			return true, 2
		}
	case <-time.After(stopTimeout):
		h.log.Warn().Dur("timeout", stopTimeout).Msg("Timeout waiting for service to stop")
	}

	changes <- svc.Status{State: svc.Stopped}
	return false, 0
}
