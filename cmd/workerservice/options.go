package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"workerservice/internal/config"
	"workerservice/internal/service"
)

type options struct {
	configPath   string
	pollInterval time.Duration
}

func (o *options) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", defaultConfigPath(), "Path to "+config.BaseFileName)
	flags.DurationVar(&o.pollInterval, "poll-interval", service.DefaultPollInterval, "How often the interactive driver checks for a stop request")
}

// defaultConfigPath prefers the file next to the executable, since a
// Windows service starts in System32, and falls back to the working
// directory.
func defaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return config.BaseFileName
	}
	path := filepath.Join(filepath.Dir(exe), config.BaseFileName)
	if _, err := os.Stat(path); err != nil {
		return config.BaseFileName
	}
	return path
}

func absConfigPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
