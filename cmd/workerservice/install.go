package main

import (
	"context"
	"fmt"
	"os"

	"workerservice/internal/service"
)

func install(ctx context.Context, opts *options) error {
	a, err := bootstrap(opts.configPath, false)
	if err != nil {
		return err
	}
	defer a.close()

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	settings := a.cfg.AppSettings
	if err := service.Install(service.ServiceConfig{
		Name:        settings.ServiceName,
		DisplayName: settings.DisplayName,
		Description: settings.Description,
		ExePath:     exe,
		Args:        []string{"run", "--config", a.configPath},
	}); err != nil {
		a.log.Error().Err(err).Str("service", settings.ServiceName).Msg("Install failed")
		return err
	}

	tk, err := a.newTask(ctx, false)
	if err != nil {
		return err
	}
	return service.NewTaskHooks(ctx, tk, a.logs.WithComponent("service")).Install()
}

func uninstall(ctx context.Context, opts *options) error {
	a, err := bootstrap(opts.configPath, false)
	if err != nil {
		return err
	}
	defer a.close()

	name := a.cfg.AppSettings.ServiceName
	if err := service.Uninstall(name); err != nil {
		a.log.Error().Err(err).Str("service", name).Msg("Uninstall failed")
		return err
	}

	tk, err := a.newTask(ctx, false)
	if err != nil {
		return err
	}
	return service.NewTaskHooks(ctx, tk, a.logs.WithComponent("service")).Uninstall()
}
