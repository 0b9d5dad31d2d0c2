// Package main is the entry point for the spawn CLI, a thin front end over
// spawn sessions: run a command, stream its output live, mirror its exit
// status.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferrell/spawn"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var ee *spawn.ExitError
		if errors.As(err, &ee) {
			return ee.ExitCode
		}

		fmt.Fprintf(os.Stderr, "spawn: %v\n", err)

		return 1
	}

	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spawn",
		Short:         "Run commands with streamed output and deterministic completion",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCmd())

	return cmd
}
