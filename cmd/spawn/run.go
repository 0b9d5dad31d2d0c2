package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ferrell/spawn"
)

type runFlags struct {
	jobFile   string
	cwd       string
	timeout   time.Duration
	lines     int
	noCapture bool
	verbose   bool
}

var stderrColor = color.New(color.FgRed)

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Run a command, streaming stdout and stderr as they arrive",
		Args: func(cmd *cobra.Command, args []string) error {
			if flags.jobFile == "" && len(args) == 0 {
				return errors.New("no command (pass one after --, or use --job)")
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.jobFile, "job", "", "YAML job file describing the command and options")
	cmd.Flags().StringVar(&flags.cwd, "cwd", "", "working directory for the command")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "kill the command after this duration (0 disables)")
	cmd.Flags().IntVar(&flags.lines, "lines", 0, "retain only the last N output lines (0 means unlimited)")
	cmd.Flags().BoolVar(&flags.noCapture, "no-capture", false, "discard stdout instead of streaming it")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log session lifecycle to stderr")

	return cmd
}

func runSession(cobraCmd *cobra.Command, flags *runFlags, args []string) error {
	var (
		command *spawn.Command
		opts    []spawn.Option
	)

	if flags.jobFile != "" {
		job, err := loadJob(flags.jobFile)
		if err != nil {
			return err
		}

		command, opts = job.Command(), job.Options()
	} else {
		command = spawn.NewCommand(args[0], args[1:]...)
	}

	if flags.cwd != "" {
		opts = append(opts, spawn.WithDir(flags.cwd))
	}

	if flags.timeout > 0 {
		opts = append(opts, spawn.WithTimeout(flags.timeout))
	}

	if flags.lines > 0 {
		opts = append(opts, spawn.WithLineLimit(flags.lines))
	}

	if flags.noCapture {
		opts = append(opts, spawn.WithCaptureStdout(false))
	}

	if flags.verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		opts = append(opts, spawn.WithLogger(spawn.NewSlogLogger(logger)))
	}

	opts = append(opts,
		spawn.OnData(func(chunk []byte) {
			_, _ = os.Stdout.Write(chunk)
		}),
		spawn.OnStderrLine(func(line string) {
			_, _ = stderrColor.Fprintln(os.Stderr, line)
		}),
	)

	session := spawn.NewSession(command, opts...)
	if err := session.Start(cobraCmd.Context()); err != nil {
		return err
	}

	if err := session.Wait(); err != nil {
		var te *spawn.TimeoutError
		if errors.As(err, &te) {
			return fmt.Errorf("%s: %w", command.Target(), err)
		}

		return err
	}

	return nil
}
