package spawn

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCommand indicates that a session was started without a command.
// No process is spawned in this case.
var ErrNoCommand = errors.New("no command")

// SpawnError represents a failure to create the process at the OS level
// (e.g. binary not found, permission denied). The streams never opened, so
// no output was produced.
type SpawnError struct {
	Command *Command
	Err     error
}

func (e *SpawnError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("failed to start process: %v", e.Err)
	}

	return fmt.Sprintf("failed to start %q: %v", e.Command.String(), e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError represents a process that terminated with a non-zero exit code.
// Detail carries the stderr tail extracted at completion time, if any.
type ExitError struct {
	Target   string
	ExitCode int
	Detail   string
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s exited with code %d", e.Target, e.ExitCode)
	}

	return fmt.Sprintf("%s exited with code %d: %s", e.Target, e.ExitCode, e.Detail)
}

// SignalError represents a process that was terminated by an OS signal.
type SignalError struct {
	Target string
	Signal string
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("%s was killed with signal %s", e.Target, e.Signal)
}

// TimeoutError represents a session that exceeded its configured deadline.
// The process is forcibly terminated, but the timeout takes precedence over
// whatever exit status it eventually produces.
type TimeoutError struct {
	Seconds float64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("process ran into a timeout (%gs)", e.Seconds)
}

// ExtractErrorTail returns the trailing run of stderr lines that look like an
// actual error message. Many CLI tools emit structured progress or log lines
// (indented or bracket-prefixed) before the final unindented error line; any
// line beginning with a space, tab, '[' or '(' resets the retained run.
func ExtractErrorTail(stderr string) string {
	if stderr == "" {
		return ""
	}

	var tail []string

	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") ||
			strings.HasPrefix(line, "[") || strings.HasPrefix(line, "(") {
			tail = tail[:0]
			continue
		}

		tail = append(tail, line)
	}

	return strings.Trim(strings.Join(tail, "\n"), "\n")
}
