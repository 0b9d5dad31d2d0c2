//go:build windows

package spawn

import (
	"os"
	"os/exec"
)

// classifyExit maps a non-nil exec.ExitError to the session error taxonomy.
// Windows has no signaled-termination status; everything is an exit code.
func classifyExit(target string, ee *exec.ExitError) error {
	return &ExitError{
		Target:   target,
		ExitCode: ee.ExitCode(),
	}
}

// signalProcess terminates proc. Named signals cannot be delivered on
// Windows, so any request degrades to a hard kill.
func signalProcess(proc *os.Process, _ string) error {
	return proc.Kill()
}
