package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"workerservice/internal/config"
	"workerservice/internal/heartbeat"
	"workerservice/internal/logger"
	"workerservice/internal/publisher"
	"workerservice/internal/service"
	"workerservice/internal/task"
)

// startupErrorDir is relative to the configuration file.
const startupErrorDir = "logs"

// app holds what every subcommand needs after bootstrap.
type app struct {
	cfg        *config.Config
	configPath string
	logs       *logger.Logger
	log        zerolog.Logger

	watcher   *config.FileWatcher
	publisher publisher.Publisher
}

// bootstrap loads the configuration and builds the logger. In service mode
// the working directory moves to the configuration directory so relative
// log paths resolve there.
func bootstrap(configPath string, serviceMode bool) (*app, error) {
	configPath = absConfigPath(configPath)
	if serviceMode {
		dir := filepath.Dir(configPath)
		if err := os.Chdir(dir); err != nil {
			return nil, fmt.Errorf("failed to chdir to %s: %w", dir, err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logs, err := logger.New(cfg.Logging, logger.WithServiceMode(serviceMode))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:        cfg,
		configPath: configPath,
		logs:       logs,
		log:        logs.WithComponent("main"),
	}
	a.log.Info().
		Str("version", version).
		Str("config", configPath).
		Str("environment", cfg.Environment).
		Int("interval_sec", cfg.AppSettings.WorkerIntervalInSec).
		Msgf("%s start", appName)
	return a, nil
}

// reportStartupFailure makes a failure visible before or without the logger.
func reportStartupFailure(configPath string, err error) error {
	name := config.DefaultConfig().AppSettings.ServiceName
	service.ReportStartupError(name, err)
	dir := filepath.Join(filepath.Dir(absConfigPath(configPath)), startupErrorDir)
	if path, werr := service.WriteStartupErrorFile(dir, err); werr == nil {
		return fmt.Errorf("%w (details in %s)", err, path)
	}
	return err
}

// watchLogging applies Logging changes without a restart.
func (a *app) watchLogging() {
	w, err := config.NewLoggingWatcher(a.configPath, os.LookupEnv, a.logs.WithComponent("config"), func(lc logger.Config) {
		if err := a.logs.Reload(lc); err != nil {
			a.log.Error().Err(err).Msg("Failed to apply logging configuration")
		}
	})
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("Logging configuration will not be reloaded")
		return
	}
	a.watcher = w
}

// newTask builds the heartbeat task. Sinks are opened only when withSinks is
// set, so install and uninstall never touch the network.
func (a *app) newTask(ctx context.Context, withSinks bool, opts ...task.Option) (*task.Task, error) {
	interval := a.cfg.AppSettings.Interval()

	hbOpts := []heartbeat.Option{
		heartbeat.WithProbe(heartbeat.NewSystemProbe(ctx, a.logs.WithComponent("probe"))),
	}
	if withSinks {
		pub, err := publisher.New(a.cfg.Publisher, interval, a.logs.WithComponent("publisher"))
		if err != nil {
			return nil, err
		}
		if pub != nil {
			a.publisher = pub
			hbOpts = append(hbOpts, heartbeat.WithPublisher(pub))
		}
	}

	hb := heartbeat.New(heartbeat.Config{
		Service:     a.cfg.AppSettings.ServiceName,
		Environment: a.cfg.Environment,
		Interval:    interval,
	}, a.logs.WithComponent("worker"), hbOpts...)

	opts = append([]task.Option{
		task.WithLogger(a.logs.WithComponent("task")),
		task.WithName(a.cfg.AppSettings.ServiceName),
	}, opts...)
	return task.New(interval, hb.Run, opts...)
}

// close releases everything bootstrap and newTask opened. The logger is
// closed last so the other components can still log.
func (a *app) close() {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to stop configuration watcher")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close heartbeat publisher")
		}
	}
	a.log.Info().Msgf("%s stop", appName)
	a.logs.Close()
}
