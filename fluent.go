package spawn

import (
	"context"
	"time"
)

// Builder provides a fluent API for constructing and starting sessions.
type Builder struct {
	cmd  *Command
	opts []Option
}

// Cmd creates a new Builder for a command with the given name/path.
func Cmd(binary string) *Builder {
	return &Builder{
		cmd: &Command{
			Cmd: binary,
		},
	}
}

// Arg adds a single argument.
func (b *Builder) Arg(arg string) *Builder {
	b.cmd.Args = append(b.cmd.Args, arg)
	return b
}

// Args adds multiple arguments.
func (b *Builder) Args(args ...string) *Builder {
	b.cmd.Args = append(b.cmd.Args, args...)
	return b
}

// Env adds an environment variable in "KEY=VALUE" format.
func (b *Builder) Env(key, value string) *Builder {
	b.cmd.Env = append(b.cmd.Env, key+"="+value)
	return b
}

// Dir sets the working directory.
func (b *Builder) Dir(dir string) *Builder {
	b.cmd.Dir = dir
	return b
}

// Timeout forces termination after d.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.opts = append(b.opts, WithTimeout(d))
	return b
}

// LineLimit bounds both output rings to the last n lines.
func (b *Builder) LineLimit(n int) *Builder {
	b.opts = append(b.opts, WithLineLimit(n))
	return b
}

// CaptureStdout toggles stdout buffering and forwarding.
func (b *Builder) CaptureStdout(capture bool) *Builder {
	b.opts = append(b.opts, WithCaptureStdout(capture))
	return b
}

// Logger sets the session logger.
func (b *Builder) Logger(l Logger) *Builder {
	b.opts = append(b.opts, WithLogger(l))
	return b
}

// OnData registers a raw stdout chunk callback.
func (b *Builder) OnData(fn func(chunk []byte)) *Builder {
	b.opts = append(b.opts, OnData(fn))
	return b
}

// OnStderrLine registers a live stderr line callback.
func (b *Builder) OnStderrLine(fn func(line string)) *Builder {
	b.opts = append(b.opts, OnStderrLine(fn))
	return b
}

// OnComplete registers the completion callback.
func (b *Builder) OnComplete(fn func(err error, stdout, stderr string)) *Builder {
	b.opts = append(b.opts, OnComplete(fn))
	return b
}

// Build returns the constructed command and accumulated options.
func (b *Builder) Build() (*Command, []Option) {
	return b.cmd, b.opts
}

// Session constructs the session without starting it.
func (b *Builder) Session() *Session {
	return NewSession(b.cmd, b.opts...)
}

// Start constructs the session and spawns the process.
func (b *Builder) Start(ctx context.Context) (*Session, error) {
	s := b.Session()
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Run constructs the session, spawns the process and waits for completion.
func (b *Builder) Run(ctx context.Context) (stdout, stderr string, err error) {
	return Run(ctx, b.cmd, b.opts...)
}
