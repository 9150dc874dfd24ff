// Package main is the entry point for the workerservice application.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "workerservice"

// Set by ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           appName,
		Short:         "Long-running worker that emits a periodic heartbeat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassic(cmd.Context(), opts)
		},
	}
	opts.register(root)
	root.AddCommand(
		runCmd(opts),
		hostCmd(opts),
		installCmd(opts),
		uninstallCmd(opts),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s)\n", appName, version, buildTime)
		},
	}
}

func runCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run in the foreground, or under the service manager when started by it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassic(cmd.Context(), opts)
		},
	}
}

func hostCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Run the worker as a hosted background service until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHosted(cmd.Context(), opts)
		},
	}
}

func installCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Register the worker with the Windows Service Control Manager",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return install(cmd.Context(), opts)
		},
	}
}

func uninstallCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the worker from the Windows Service Control Manager",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return uninstall(cmd.Context(), opts)
		},
	}
}
