package spawn

import "time"

// sessionConfig holds configuration derived from options.
type sessionConfig struct {
	captureStdout bool
	lineLimit     int
	timeout       time.Duration
	dir           string
	env           []string
	logger        Logger

	onStart    func(command string, args []string)
	onData     func(chunk []byte)
	onStderr   func(line string)
	onError    func(err error, stdout, stderr string)
	onEnd      func(stdout, stderr string)
	onComplete func(err error, stdout, stderr string)
}

func defaultConfig() sessionConfig {
	return sessionConfig{
		captureStdout: true,
		logger:        NopLogger{},
	}
}

// Option defines a functional option for a Session.
type Option func(*sessionConfig)

// WithCaptureStdout toggles stdout buffering and forwarding (default true).
// When disabled, stdout is discarded and the stdout ring stays empty.
func WithCaptureStdout(capture bool) Option {
	return func(c *sessionConfig) {
		c.captureStdout = capture
	}
}

// WithLineLimit bounds both output rings to the last n completed lines.
// Zero or negative means unlimited (the default).
func WithLineLimit(n int) Option {
	return func(c *sessionConfig) {
		c.lineLimit = n
	}
}

// WithTimeout forces termination and an early error completion if the
// process is still running after d. Zero disables the deadline (the default).
func WithTimeout(d time.Duration) Option {
	return func(c *sessionConfig) {
		c.timeout = d
	}
}

// WithDir sets the working directory (default: inherited).
func WithDir(dir string) Option {
	return func(c *sessionConfig) {
		c.dir = dir
	}
}

// WithEnv appends environment variables in "KEY=VALUE" format to the
// inherited environment.
func WithEnv(env ...string) Option {
	return func(c *sessionConfig) {
		c.env = append(c.env, env...)
	}
}

// WithLogger sets the session logger (default: NopLogger).
func WithLogger(l Logger) Option {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// OnStart registers fn to be called once, when spawning begins.
func OnStart(fn func(command string, args []string)) Option {
	return func(c *sessionConfig) {
		c.onStart = fn
	}
}

// OnData registers fn for raw stdout chunks as they arrive.
// Only fires when stdout capture is enabled.
func OnData(fn func(chunk []byte)) Option {
	return func(c *sessionConfig) {
		c.onData = fn
	}
}

// OnStderrLine registers fn for each completed stderr line. Registering a
// consumer is what enables live stderr forwarding; without one, stderr is
// only buffered.
func OnStderrLine(fn func(line string)) Option {
	return func(c *sessionConfig) {
		c.onStderr = fn
	}
}

// OnError registers fn for the error terminal event. At most one of the
// OnError and OnEnd callbacks fires per session.
func OnError(fn func(err error, stdout, stderr string)) Option {
	return func(c *sessionConfig) {
		c.onError = fn
	}
}

// OnEnd registers fn for the success terminal event.
func OnEnd(fn func(stdout, stderr string)) Option {
	return func(c *sessionConfig) {
		c.onEnd = fn
	}
}

// OnComplete registers a completion callback invoked exactly once, after the
// terminal event, with a nil error on success.
func OnComplete(fn func(err error, stdout, stderr string)) Option {
	return func(c *sessionConfig) {
		c.onComplete = fn
	}
}
