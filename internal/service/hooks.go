package service

import (
	"context"

	"github.com/rs/zerolog"

	"workerservice/internal/task"
)

// TaskHooks drives a periodic task through the service lifecycle.
type TaskHooks struct {
	ctx  context.Context
	task *task.Task
	log  zerolog.Logger
}

// NewTaskHooks returns Hooks that start t with ctx and stop it on request.
func NewTaskHooks(ctx context.Context, t *task.Task, log zerolog.Logger) *TaskHooks {
	return &TaskHooks{ctx: ctx, task: t, log: log}
}

// Install implements Hooks.
func (h *TaskHooks) Install() error {
	h.log.Info().Str("task", h.task.Name()).Msg("Service installed")
	return nil
}

// Start implements Hooks.
func (h *TaskHooks) Start() error {
	if err := h.task.Start(h.ctx); err != nil {
		h.log.Error().Err(err).Str("task", h.task.Name()).Msg("Failed to start service")
		return err
	}
	h.log.Info().Str("task", h.task.Name()).Msg("Service started")
	return nil
}

// Stop implements Hooks.
func (h *TaskHooks) Stop() error {
	if err := h.task.Stop(); err != nil {
		h.log.Error().Err(err).Str("task", h.task.Name()).Msg("Failed to stop service")
		return err
	}
	h.log.Info().Str("task", h.task.Name()).Uint64("ticks", h.task.Ticks()).Msg("Service stopped")
	return nil
}

// Uninstall implements Hooks.
func (h *TaskHooks) Uninstall() error {
	h.log.Info().Str("task", h.task.Name()).Msg("Service uninstalled")
	return nil
}
