package spawn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState identifies where a session is in its lifecycle.
type SessionState int32

const (
	// StateIdle means the session has been created but not started.
	StateIdle SessionState = iota
	// StateSpawning means Start has been called and the process is being created.
	StateSpawning
	// StateRunning means the process is alive and its streams are wired.
	StateRunning
	// StateCompleting means the terminal emission is in progress.
	StateCompleting
	// StateTerminated means the terminal emission has been delivered.
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateCompleting:
		return "completing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Session owns one spawned process: it wires the output streams into two
// line rings, funnels the independent exit and stream-close signals through
// a CompletionGate, and delivers a single terminal event per run.
//
// The terminal event is exactly one of the error or end notifications,
// followed by the completion callback. A configured timeout races the normal
// completion path; whichever fires first wins.
type Session struct {
	id     string
	cmd    *Command
	cfg    sessionConfig
	stdout *LineRing
	stderr *LineRing
	gate   *CompletionGate

	mu          sync.Mutex
	state       SessionState
	proc        *os.Process // cleared once the process has exited
	ended       bool
	timer       *time.Timer
	err         error
	finalStdout string
	finalStderr string

	done chan struct{}
}

// NewSession creates a session for cmd. The process is not spawned until
// Start is called.
func NewSession(cmd *Command, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		id:     uuid.NewString(),
		cmd:    cmd,
		cfg:    cfg,
		stdout: NewLineRing(cfg.lineLimit),
		stderr: NewLineRing(cfg.lineLimit),
		done:   make(chan struct{}),
	}

	signals := []Signal{SignalProcessExited, SignalStderrClosed}
	if cfg.captureStdout {
		signals = append(signals, SignalStdoutClosed)
	}

	s.gate = NewCompletionGate(func(err error) { s.finish(err) }, signals...)

	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Start validates the command and spawns the process. It fails fast with
// ErrNoCommand when no command is configured; spawn failures are returned
// and also delivered through the terminal emission, since the streams never
// opened and the gate would otherwise wait forever.
func (s *Session) Start(ctx context.Context) error {
	if err := s.cmd.Validate(); err != nil {
		s.finish(err)

		return err
	}

	s.mu.Lock()

	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()

		return fmt.Errorf("cannot start session %s: state is %s", s.id, state)
	}

	s.state = StateSpawning
	s.mu.Unlock()

	if s.cfg.onStart != nil {
		s.cfg.onStart(s.cmd.Cmd, s.cmd.Args)
	}

	// Live stderr forwarding only when a consumer registered.
	if s.cfg.onStderr != nil {
		s.stderr.Observe(s.cfg.onStderr)
	}

	s.cfg.logger.Debug("spawning process",
		"session", s.id, "command", s.cmd.String())

	execCmd := exec.CommandContext(ctx, s.cmd.Cmd, s.cmd.Args...)

	if s.cmd.Dir != "" {
		execCmd.Dir = s.cmd.Dir
	} else if s.cfg.dir != "" {
		execCmd.Dir = s.cfg.dir
	}

	if env := slices.Concat(s.cmd.Env, s.cfg.env); len(env) > 0 {
		execCmd.Env = append(os.Environ(), env...)
	}

	// Parent-owned pipes rather than StdoutPipe/StderrPipe: the readers must
	// outlive Wait, and EOF must arrive independently of the exit signal.
	var outR, outW *os.File

	if s.cfg.captureStdout {
		var err error

		outR, outW, err = os.Pipe()
		if err != nil {
			return s.spawnFailed(err)
		}

		execCmd.Stdout = outW
	}

	errR, errW, err := os.Pipe()
	if err != nil {
		closePipes(outR, outW)

		return s.spawnFailed(err)
	}

	execCmd.Stderr = errW

	if err := execCmd.Start(); err != nil {
		closePipes(outR, outW, errR, errW)

		return s.spawnFailed(err)
	}

	s.mu.Lock()
	s.proc = execCmd.Process
	s.state = StateRunning

	if s.cfg.timeout > 0 {
		s.timer = time.AfterFunc(s.cfg.timeout, s.timedOut)
	}

	s.mu.Unlock()

	s.cfg.logger.Debug("process started",
		"session", s.id, "pid", execCmd.Process.Pid)

	// Close the parent's copies of the write ends so the readers see EOF
	// when the child side closes.
	closePipes(outW, errW)

	if s.cfg.captureStdout {
		go s.consume(outR, s.stdout, SignalStdoutClosed, s.cfg.onData)
	}

	go s.consume(errR, s.stderr, SignalStderrClosed, nil)
	go s.waitExit(execCmd)

	return nil
}

// Wait blocks until the terminal emission has been delivered and returns the
// terminal error, if any.
func (s *Session) Wait() error {
	<-s.done

	return s.Err()
}

// Done returns a channel closed after the terminal emission.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal error. Only meaningful once Done is closed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// FinalStdout returns the stdout snapshot delivered with the terminal event.
func (s *Session) FinalStdout() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.finalStdout
}

// FinalStderr returns the stderr snapshot delivered with the terminal event.
func (s *Session) FinalStderr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.finalStderr
}

// Stdout returns the stdout ring. Useful for attaching observers.
func (s *Session) Stdout() *LineRing {
	return s.stdout
}

// Stderr returns the stderr ring.
func (s *Session) Stderr() *LineRing {
	return s.stderr
}

// Kill sends the named signal ("SIGKILL" when empty) to the process. If no
// process is currently owned — never started, or already exited — it logs a
// warning and no-ops.
func (s *Session) Kill(signal string) error {
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()

	if proc == nil {
		s.cfg.logger.Warn("kill requested but no process is running",
			"session", s.id)

		return nil
	}

	if signal == "" {
		signal = "SIGKILL"
	}

	s.cfg.logger.Debug("sending signal",
		"session", s.id, "pid", proc.Pid, "signal", signal)

	return signalProcess(proc, signal)
}

// spawnFailed delivers a spawn error through the terminal emission and
// returns it. Spawn errors bypass the gate: the streams never opened, so
// none of its signals will ever arrive.
func (s *Session) spawnFailed(err error) error {
	serr := &SpawnError{Command: s.cmd, Err: err}

	s.cfg.logger.Error("failed to start process",
		"session", s.id, "command", s.cmd.String(), "error", err)

	s.finish(serr)

	return serr
}

// consume pumps one output stream into its ring until EOF, then closes the
// ring and reports the stream's completion signal.
func (s *Session) consume(r io.ReadCloser, ring *LineRing, sig Signal, onData func([]byte)) {
	buf := make([]byte, 32*1024)

	for {
		n, err := r.Read(buf)

		if n > 0 {
			ring.Append(buf[:n])

			if onData != nil {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				onData(chunk)
			}
		}

		if err != nil {
			_ = r.Close()
			ring.Close()

			s.cfg.logger.Debug("stream closed", "session", s.id, "signal", string(sig))
			s.gate.Report(sig, nil)

			return
		}
	}
}

// waitExit reaps the process, classifies its exit status and reports it to
// the gate. The process handle is released first so a late Kill becomes the
// warning no-op.
func (s *Session) waitExit(execCmd *exec.Cmd) {
	waitErr := execCmd.Wait()

	s.mu.Lock()
	s.proc = nil
	s.mu.Unlock()

	var exitErr error

	if waitErr != nil {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			exitErr = classifyExit(s.cmd.Target(), ee)
		} else {
			exitErr = waitErr
		}
	}

	s.cfg.logger.Debug("process exited",
		"session", s.id, "error", exitErr)

	s.gate.Report(SignalProcessExited, exitErr)
}

// timedOut is the deferred timeout action. It bypasses the gate — the
// process may not exit promptly even after being signalled — and emits with
// the current, possibly still-open ring snapshots. The session's ended flag
// renders it inert when normal completion won the race.
func (s *Session) timedOut() {
	terr := &TimeoutError{Seconds: s.cfg.timeout.Seconds()}

	if !s.finish(terr) {
		return
	}

	s.cfg.logger.Warn("session timed out",
		"session", s.id, "timeout", s.cfg.timeout)

	_ = s.Kill("SIGKILL")
}

// finish performs the terminal emission. Returns false if it already
// happened; the first caller wins, every later path is a no-op.
func (s *Session) finish(err error) bool {
	s.mu.Lock()

	if s.ended {
		s.mu.Unlock()

		return false
	}

	s.ended = true
	s.state = StateCompleting

	if s.timer != nil {
		s.timer.Stop()
	}

	s.mu.Unlock()

	stdoutText := s.stdout.Content()
	stderrText := s.stderr.Content()

	// Non-zero exits carry the best-effort stderr tail in their message.
	var ee *ExitError
	if errors.As(err, &ee) {
		ee.Stderr = stderrText

		if tail := ExtractErrorTail(stderrText); tail != "" {
			ee.Detail = tail
		}
	}

	if err != nil {
		if s.cfg.onError != nil {
			s.cfg.onError(err, stdoutText, stderrText)
		}
	} else if s.cfg.onEnd != nil {
		s.cfg.onEnd(stdoutText, stderrText)
	}

	if s.cfg.onComplete != nil {
		s.cfg.onComplete(err, stdoutText, stderrText)
	}

	s.mu.Lock()
	s.err = err
	s.finalStdout = stdoutText
	s.finalStderr = stderrText
	s.state = StateTerminated
	s.mu.Unlock()

	close(s.done)

	return true
}

// Run spawns cmd, waits for completion and returns the final output
// snapshots. It is the synchronous convenience wrapper around a Session.
func Run(ctx context.Context, cmd *Command, opts ...Option) (stdout, stderr string, err error) {
	s := NewSession(cmd, opts...)

	if err := s.Start(ctx); err != nil {
		return "", "", err
	}

	err = s.Wait()

	return s.FinalStdout(), s.FinalStderr(), err
}

func closePipes(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
