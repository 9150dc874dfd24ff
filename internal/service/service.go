// Package service runs the worker either from a console or under the
// operating system's service manager. Both paths drive the same Hooks, so
// start and stop logic exists exactly once.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// ErrUnsupported is returned by Install and Uninstall on platforms without a
// supported service manager.
var ErrUnsupported = errors.New("service installation is only supported on Windows")

// Replaced in tests.
var (
	signalNotify = signal.Notify
	signalStop   = signal.Stop
)

// DefaultSignals stop the worker in both run modes.
var DefaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// DefaultPollInterval bounds how long the interactive driver takes to notice
// a stop request.
const DefaultPollInterval = time.Second

// DefaultExitPause keeps the final console line readable before the window
// closes.
const DefaultExitPause = time.Second

// Hooks are the lifecycle callbacks of a service.
type Hooks interface {
	Install() error
	Start() error
	Stop() error
	Uninstall() error
}

// RunMode tells how the process was launched. It is decided once at startup.
type RunMode int

const (
	// Interactive means attached to a console.
	Interactive RunMode = iota
	// Unattended means launched by a service manager.
	Unattended
)

func (m RunMode) String() string {
	switch m {
	case Interactive:
		return "interactive"
	case Unattended:
		return "unattended"
	default:
		return fmt.Sprintf("runmode(%d)", int(m))
	}
}

// Manager hands Hooks to an operating system service manager and blocks
// until the manager stops the service.
type Manager interface {
	Run(ctx context.Context, name string, hooks Hooks) error
}

// Dispatcher picks the driver for Mode and runs Hooks through it.
type Dispatcher struct {
	Name    string
	Mode    RunMode
	Hooks   Hooks
	Manager Manager

	// Console receives the interactive status lines. Defaults to os.Stdout.
	Console      io.Writer
	PollInterval time.Duration
	// ExitPause is waited after "All services stopped." in interactive mode.
	ExitPause time.Duration
	Signals   []os.Signal
	Clock     clock.Clock
	Log       zerolog.Logger
}

// Run blocks until the service has stopped. A start or stop failure is
// returned to the caller.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.Hooks == nil {
		return errors.New("service hooks are required")
	}
	d.Log.Debug().Str("mode", d.Mode.String()).Str("service", d.Name).Msg("Dispatching service")

	switch d.Mode {
	case Interactive:
		return d.runInteractive(ctx)
	case Unattended:
		if d.Manager == nil {
			return errors.New("unattended mode requires a service manager")
		}
		return d.Manager.Run(ctx, d.Name, d.Hooks)
	default:
		return fmt.Errorf("unknown run mode %v", d.Mode)
	}
}

func (d *Dispatcher) runInteractive(ctx context.Context) error {
	console := d.Console
	if console == nil {
		console = os.Stdout
	}
	signals := d.Signals
	if len(signals) == 0 {
		signals = DefaultSignals
	}
	poll := d.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.New()
	}

	var running atomic.Bool
	running.Store(true)

	sigCh := make(chan os.Signal, 1)
	signalNotify(sigCh, signals...)
	defer signalStop(sigCh)

	ctx, cancel := context.WithCancel(ctx)
	handlerDone := make(chan struct{})
	defer func() {
		cancel()
		<-handlerDone
	}()

	go func() {
		defer close(handlerDone)
		select {
		case sig := <-sigCh:
			d.Log.Info().Str("signal", sig.String()).Msg("Received stop signal")
			fmt.Fprintln(console, "Received stop signal, will exit the application ...")
		case <-ctx.Done():
		}
		running.Store(false)
	}()

	fmt.Fprintln(console, "Services running in interactive mode.")
	fmt.Fprintln(console)
	fmt.Fprintf(console, "Starting %s...\n", d.Name)
	if err := d.Hooks.Start(); err != nil {
		return err
	}
	fmt.Fprintln(console, "Started")
	fmt.Fprintln(console)
	fmt.Fprintln(console, "Press [Ctrl]+[C] to exit the application ...")

	ticker := clk.Ticker(poll)
	defer ticker.Stop()
	for running.Load() {
		<-ticker.C
	}

	fmt.Fprintln(console)
	fmt.Fprintf(console, "Stopping %s...\n", d.Name)
	err := d.Hooks.Stop()
	if err == nil {
		fmt.Fprintf(console, "%s Stopped\n", d.Name)
	}
	fmt.Fprintln(console, "All services stopped.")
	if d.ExitPause > 0 {
		clk.Sleep(d.ExitPause)
	}
	return err
}
