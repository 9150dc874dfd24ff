package host

import (
	"context"

	"workerservice/internal/task"
)

// TaskService runs a periodic task under a Host.
type TaskService struct {
	task *task.Task
}

// NewTaskService wraps t.
func NewTaskService(t *task.Task) *TaskService {
	return &TaskService{task: t}
}

// Start implements BackgroundService.
func (s *TaskService) Start(ctx context.Context) error {
	return s.task.Start(ctx)
}

// Stop implements BackgroundService. It returns ctx.Err() if the in-flight
// tick outlives ctx; the task still stops once the tick returns.
func (s *TaskService) Stop(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- s.task.Stop()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the task has stopped.
func (s *TaskService) Done() <-chan struct{} {
	return s.task.Done()
}
