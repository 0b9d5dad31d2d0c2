package spawn

import "sync"

// Signal identifies one of the independent completion sources a session
// waits on before emitting its terminal event.
type Signal string

const (
	// SignalProcessExited is reported when the child process terminates.
	SignalProcessExited Signal = "processExited"
	// SignalStdoutClosed is reported when the stdout stream reaches EOF.
	// Omitted from the required set when stdout capture is disabled.
	SignalStdoutClosed Signal = "stdoutClosed"
	// SignalStderrClosed is reported when the stderr stream reaches EOF.
	SignalStderrClosed Signal = "stderrClosed"
)

// CompletionGate collects completion signals that arrive independently and
// in arbitrary order, and fires its terminal callback exactly once when
// every required signal has been reported. The first error reported wins;
// later error-free reports do not clear it.
type CompletionGate struct {
	mu      sync.Mutex
	pending map[Signal]struct{}
	err     error
	fired   bool
	done    func(err error)
}

// NewCompletionGate creates a gate requiring every signal in signals.
// done is invoked exactly once, on the goroutine that reports the last
// outstanding signal.
func NewCompletionGate(done func(err error), signals ...Signal) *CompletionGate {
	pending := make(map[Signal]struct{}, len(signals))
	for _, sig := range signals {
		pending[sig] = struct{}{}
	}

	return &CompletionGate{
		pending: pending,
		done:    done,
	}
}

// Report marks sig satisfied and records err if it is the first error seen.
// No-op once the gate has fired. Reporting a signal that is not in the
// required set still records its error but cannot trigger firing on its own.
func (g *CompletionGate) Report(sig Signal, err error) {
	g.mu.Lock()

	if g.fired {
		g.mu.Unlock()

		return
	}

	if err != nil && g.err == nil {
		g.err = err
	}

	delete(g.pending, sig)

	if len(g.pending) > 0 {
		g.mu.Unlock()

		return
	}

	g.fired = true
	done, finalErr := g.done, g.err
	g.mu.Unlock()

	if done != nil {
		done(finalErr)
	}
}

// Fired reports whether the terminal callback has been invoked.
func (g *CompletionGate) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.fired
}

// Err returns the first error reported to the gate, if any.
func (g *CompletionGate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.err
}
