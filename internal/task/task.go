// Package task implements the lifecycle of the single periodic background task
// a worker process runs.
//
// A Task moves through Created → Starting → Running → Stopping → Stopped.
// While Running it performs its action once per interval. The wait between
// actions selects on the task context, so a stop request is honoured
// immediately instead of after the remainder of the interval.
//
// Tick failure policy: an error returned by the action, or a panic raised by
// it, is logged and the loop carries on with the next tick.
//
// Stop only interrupts the wait between ticks. An action already running
// finishes: it receives the context passed to Start, which Stop does not
// cancel. Cancelling that context interrupts both.
//
// Known limitation: an action that never returns blocks Stop.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyStarted is returned by Start on a task that has left Created.
	ErrAlreadyStarted = errors.New("task already started")
	// ErrAnotherActive is returned by Start while another task in the
	// process is running.
	ErrAnotherActive = errors.New("another periodic task is already active in this process")
)

// active enforces one running task per process.
var active atomic.Bool

// State is a lifecycle state of a Task.
type State int32

const (
	StateCreated State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Action is the work performed on every tick.
type Action func(ctx context.Context) error

// Option configures a Task.
type Option func(*Task)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(t *Task) { t.clock = c }
}

// WithLogger sets the logger used for lifecycle and tick events.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Task) { t.log = log }
}

// WithName sets the name reported in log events.
func WithName(name string) Option {
	return func(t *Task) { t.name = name }
}

// WithImmediateStart runs the first action as soon as the task is running
// instead of after the first interval.
func WithImmediateStart() Option {
	return func(t *Task) { t.immediate = true }
}

// Task runs an Action periodically until stopped.
type Task struct {
	name      string
	interval  time.Duration
	action    Action
	clock     clock.Clock
	log       zerolog.Logger
	immediate bool

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	ticks    atomic.Uint64
	failures atomic.Uint64
}

// New creates a task in the Created state. The interval must be positive.
func New(interval time.Duration, action Action, opts ...Option) (*Task, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("task interval must be positive, got %v", interval)
	}
	if action == nil {
		return nil, errors.New("task action must not be nil")
	}

	t := &Task{
		name:     "worker",
		interval: interval,
		action:   action,
		clock:    clock.New(),
		log:      zerolog.Nop(),
		state:    StateCreated,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Interval returns the configured interval.
func (t *Task) Interval() time.Duration { return t.interval }

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done is closed when the task reaches Stopped.
func (t *Task) Done() <-chan struct{} { return t.done }

// Ticks returns how many times the action has run.
func (t *Task) Ticks() uint64 { return t.ticks.Load() }

// Failures returns how many ticks ended in an error or panic.
func (t *Task) Failures() uint64 { return t.failures.Load() }

// Start moves the task from Created to Running and launches the loop. The
// loop also stops when ctx is cancelled. Start is valid once: any later call
// returns ErrAlreadyStarted and leaves the task untouched.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateCreated {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, t.name, t.state)
	}
	if !active.CompareAndSwap(false, true) {
		return ErrAnotherActive
	}

	t.state = StateStarting
	t.log.Info().
		Str("task", t.name).
		Dur("interval", t.interval).
		Msg("Task starting")

	waitCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.state = StateRunning
	go t.loop(waitCtx, ctx)

	return nil
}

// Stop requests the task to stop and waits until the in-flight action, if
// any, has returned. It is safe to call more than once and from any state.
func (t *Task) Stop() error {
	t.mu.Lock()
	switch t.state {
	case StateCreated:
		t.state = StateStopped
		close(t.done)
		t.mu.Unlock()
		t.log.Info().Str("task", t.name).Msg("Task stopped before start")
		return nil
	case StateRunning:
		t.state = StateStopping
		t.log.Info().Str("task", t.name).Str("reason", "stop requested").Msg("Task stopping")
		t.cancel()
	}
	t.mu.Unlock()

	<-t.done
	return nil
}

// loop waits on waitCtx, which Stop cancels, and runs actions with
// actionCtx, which it does not.
func (t *Task) loop(waitCtx, actionCtx context.Context) {
	defer t.finish()

	if t.immediate && waitCtx.Err() == nil {
		t.tick(actionCtx)
	}

	timer := t.clock.Timer(t.interval)
	defer timer.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return
		case <-timer.C:
		}
		if waitCtx.Err() != nil {
			return
		}
		t.tick(actionCtx)
		timer.Reset(t.interval)
	}
}

func (t *Task) finish() {
	t.mu.Lock()
	if t.state == StateRunning {
		// cancelled by the parent context rather than by Stop
		t.state = StateStopping
		t.log.Info().Str("task", t.name).Str("reason", "context cancelled").Msg("Task stopping")
	}
	t.cancel()
	t.state = StateStopped
	t.mu.Unlock()

	active.Store(false)
	t.log.Info().
		Str("task", t.name).
		Uint64("ticks", t.ticks.Load()).
		Uint64("failures", t.failures.Load()).
		Msg("Task stopped")
	close(t.done)
}

func (t *Task) tick(ctx context.Context) {
	n := t.ticks.Add(1)
	start := t.clock.Now()

	err := t.runAction(ctx)
	if err == nil {
		return
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// interrupted by shutdown, not a failure
		return
	}

	t.failures.Add(1)
	t.log.Error().
		Err(err).
		Str("task", t.name).
		Uint64("tick", n).
		Dur("duration", t.clock.Since(start)).
		Msg("Tick failed, continuing with next tick")
}

func (t *Task) runAction(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in task action: %v", r)
		}
	}()
	return t.action(ctx)
}
