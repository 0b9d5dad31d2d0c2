// Package spawn launches external processes and streams their output as it
// arrives, reporting a single deterministic completion event per run.
//
// # Core pieces
//
// - Command: what to execute (binary, arguments, environment, directory).
// - Session: one spawned process, its output rings, and its completion wiring.
// - LineRing: bounded line buffer with replay for late observers.
// - CompletionGate: fires the terminal callback exactly once, regardless of
// the order in which process exit and stream closes arrive.
//
// # Streaming
//
// `spawn` is streaming-first. Output is split into lines and forwarded to
// callbacks while the process runs; the final buffered content (subject to
// the configured line limit) is handed to the completion callback.
//
// # Completion
//
// Exactly one of the end or error notifications fires per session, never
// both, never neither, followed by the completion callback. Timeouts force
// early completion and terminate the process.
package spawn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Command configures a process execution.
type Command struct {
	Cmd  string   // Binary name or path to executable
	Args []string // Arguments to pass to the binary
	Env  []string // Environment variables in "KEY=VALUE" format
	Dir  string   // Working directory for execution
}

// Validate checks that the command is well-formed.
// Returns ErrNoCommand if the command is nil or has an empty binary.
func (c *Command) Validate() error {
	if c == nil {
		return ErrNoCommand
	}

	if strings.TrimSpace(c.Cmd) == "" {
		return ErrNoCommand
	}

	return nil
}

// NewCommand creates a new Command with the given binary and arguments.
func NewCommand(binary string, args ...string) *Command {
	return &Command{
		Cmd:  binary,
		Args: args,
	}
}

// String returns a simplified, shell-quoted string representation of the command.
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Cmd
	}

	var b strings.Builder
	b.WriteString(c.Cmd)

	for _, arg := range c.Args {
		b.WriteString(" ")

		if strings.Contains(arg, " ") {
			fmt.Fprintf(&b, "%q", arg)
		} else {
			b.WriteString(arg)
		}
	}

	return b.String()
}

// Target returns the name used in error messages: the binary without any
// leading path components.
func (c *Command) Target() string {
	cmd := c.Cmd
	if i := strings.LastIndexAny(cmd, `/\`); i >= 0 {
		cmd = cmd[i+1:]
	}

	return cmd
}

// ParseCommand parses a shell command string into a Command struct using shlex.
// It handles quoted arguments correctly.
func ParseCommand(cmdStr string) (*Command, error) {
	parts, err := shlex.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return &Command{
		Cmd:  parts[0],
		Args: parts[1:],
	}, nil
}
