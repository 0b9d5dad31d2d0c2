//go:build !windows

package spawn

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// classifyExit maps a non-nil exec.ExitError to the session error taxonomy:
// signaled termination or non-zero exit code.
func classifyExit(target string, ee *exec.ExitError) error {
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return &SignalError{
			Target: target,
			Signal: unix.SignalName(ws.Signal()),
		}
	}

	return &ExitError{
		Target:   target,
		ExitCode: ee.ExitCode(),
	}
}

// signalProcess sends the named signal (e.g. "SIGKILL", "TERM") to proc.
func signalProcess(proc *os.Process, name string) error {
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}

	sig := unix.SignalNum(name)
	if sig == 0 {
		return fmt.Errorf("unknown signal %q", name)
	}

	return proc.Signal(sig)
}
