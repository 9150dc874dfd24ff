package main

import (
	"context"

	"workerservice/internal/host"
	"workerservice/internal/service"
	"workerservice/internal/task"
)

// runClassic detects the run mode and drives the task through the
// interactive console driver or the platform service manager.
func runClassic(ctx context.Context, opts *options) error {
	mode := service.DetectRunMode()

	a, err := bootstrap(opts.configPath, mode == service.Unattended)
	if err != nil {
		return reportStartupFailure(opts.configPath, err)
	}
	defer a.close()
	a.watchLogging()

	tk, err := a.newTask(ctx, true)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to create worker")
		return reportStartupFailure(opts.configPath, err)
	}

	svcLog := a.logs.WithComponent("service")
	d := &service.Dispatcher{
		Name:         a.cfg.AppSettings.ServiceName,
		Mode:         mode,
		Hooks:        service.NewTaskHooks(ctx, tk, svcLog),
		Manager:      service.NewManager(svcLog),
		PollInterval: opts.pollInterval,
		ExitPause:    service.DefaultExitPause,
		Log:          svcLog,
	}
	if err := d.Run(ctx); err != nil {
		a.log.Error().Err(err).Str("mode", mode.String()).Msg("Service exited with error")
		return err
	}
	return nil
}

// runHosted runs the task under the application host. The hosted worker
// beats once on start and then every interval.
func runHosted(ctx context.Context, opts *options) error {
	a, err := bootstrap(opts.configPath, false)
	if err != nil {
		return reportStartupFailure(opts.configPath, err)
	}
	defer a.close()
	a.watchLogging()

	tk, err := a.newTask(ctx, true, task.WithImmediateStart())
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to create worker")
		return err
	}

	h := host.New(
		host.WithLogger(a.logs.WithComponent("host")),
		host.WithShutdownTimeout(a.cfg.AppSettings.ShutdownTimeout()),
	)
	h.Add(host.NewTaskService(tk))
	if err := h.Run(ctx); err != nil {
		a.log.Error().Err(err).Msg("Host exited with error")
		return err
	}
	return nil
}
