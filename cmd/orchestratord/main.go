// Package main provides the CLI entry point for orchestratord, the agent
// orchestration service driving Office (autonomous iteration) and Panel
// (multi-agent discussion) runs against a pluggable chat transport.
//
// # Basic usage
//
// Start the control server:
//
//	orchestratord serve --config orchestrator.yaml
//
// Drive an Office run against a running server:
//
//	orchestratord office start --objective "ship the release"
//	orchestratord office status
//	orchestratord office stop
//
// Drive a Panel discussion:
//
//	orchestratord panel start "should we adopt gRPC for the internal API?"
//	orchestratord panel status
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with every subcommand attached.
// Separated from main so tests can exercise the command tree without
// invoking Execute.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orchestratord",
		Short: "Office and Panel agent orchestration service",
		Long: `orchestratord drives two agent orchestration modes against a
pluggable chat transport: Office (a manager iterating autonomously over an
objective with a pool of assistants) and Panel (a moderated multi-agent
discussion converging on a synthesized brief).

"serve" owns the running Office and Panel managers and exposes a control
API; "office" and "panel" are thin clients against that API.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildOfficeCmd(),
		buildPanelCmd(),
	)

	return rootCmd
}
