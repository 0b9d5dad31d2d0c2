//go:build !windows

package spawn_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrell/spawn"
	"github.com/ferrell/spawn/spawntest"
)

func runRecorded(t *testing.T, cmd *spawn.Command, opts ...spawn.Option) (*spawn.Session, *spawntest.EventRecorder, error) {
	t.Helper()

	recorder := spawntest.NewEventRecorder()
	session := spawn.NewSession(cmd, append(recorder.Options(), opts...)...)

	err := session.Start(context.Background())
	if err == nil {
		err = session.Wait()
	}

	return session, recorder, err
}

func TestSession_EchoEndsOnce(t *testing.T) {
	t.Parallel()

	session, recorder, err := runRecorded(t, spawn.NewCommand("echo", "hi"))
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.Count("start"))
	assert.Equal(t, 1, recorder.Count("end"))
	assert.Equal(t, 0, recorder.Count("error"))
	assert.Equal(t, 1, recorder.Count("complete"))

	end, ok := recorder.Last("end")
	require.True(t, ok)
	assert.Equal(t, "hi", end.Stdout)
	assert.Equal(t, "", end.Stderr)

	assert.Equal(t, "hi", session.FinalStdout())
	assert.Equal(t, spawn.StateTerminated, session.State())
}

func TestSession_CompleteFiresAfterTerminalEvent(t *testing.T) {
	t.Parallel()

	_, recorder, err := runRecorded(t, spawn.NewCommand("echo", "hi"))
	require.NoError(t, err)

	events := recorder.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, "complete", events[len(events)-1].Kind)
}

func TestSession_NonZeroExitExtractsStderrTail(t *testing.T) {
	t.Parallel()

	script := spawntest.Script(t, `printf '  progress\nreal error\n' >&2; exit 2`)

	session, recorder, err := runRecorded(t, spawn.NewCommand(script))
	require.Error(t, err)

	var exitErr *spawn.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode)
	assert.Contains(t, err.Error(), "exited with code 2: real error")

	assert.Equal(t, 1, recorder.Count("error"))
	assert.Equal(t, 0, recorder.Count("end"))
	assert.Equal(t, "  progress\nreal error", session.FinalStderr())
}

func TestSession_Timeout(t *testing.T) {
	t.Parallel()

	start := time.Now()

	session, recorder, err := runRecorded(t,
		spawn.NewCommand("sleep", "30"),
		spawn.WithTimeout(250*time.Millisecond),
	)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var timeoutErr *spawn.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Contains(t, err.Error(), "timeout (0.25s)")

	assert.Equal(t, 1, recorder.Count("error"))
	assert.Equal(t, 0, recorder.Count("end"))
	assert.Equal(t, spawn.StateTerminated, session.State())
}

func TestSession_TimeoutDoesNotFireAfterCompletion(t *testing.T) {
	t.Parallel()

	_, recorder, err := runRecorded(t,
		spawn.NewCommand("echo", "quick"),
		spawn.WithTimeout(5*time.Second),
	)

	require.NoError(t, err)
	assert.Equal(t, 1, recorder.Count("end"))
	assert.Equal(t, 0, recorder.Count("error"))
}

func TestSession_KilledBySignal(t *testing.T) {
	t.Parallel()

	script := spawntest.Script(t, `kill -TERM $$`)

	_, _, err := runRecorded(t, spawn.NewCommand(script))
	require.Error(t, err)

	var sigErr *spawn.SignalError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, "SIGTERM", sigErr.Signal)
	assert.Contains(t, err.Error(), "was killed with signal SIGTERM")
}

func TestSession_KillBeforeStartWarns(t *testing.T) {
	t.Parallel()

	logger := spawntest.NewRecordingLogger()
	session := spawn.NewSession(spawn.NewCommand("echo"), spawn.WithLogger(logger))

	require.NoError(t, session.Kill("SIGKILL"))
	assert.True(t, logger.Contains("warn", "no process"))
}

func TestSession_KillRunningProcess(t *testing.T) {
	t.Parallel()

	session := spawn.NewSession(spawn.NewCommand("sleep", "30"))
	require.NoError(t, session.Start(context.Background()))

	// Give the child a moment to exist, then terminate it.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, session.Kill(""))

	err := session.Wait()

	var sigErr *spawn.SignalError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, "SIGKILL", sigErr.Signal)
}

func TestSession_LineLimit(t *testing.T) {
	t.Parallel()

	script := spawntest.Script(t, `printf 'one\ntwo\nthree\nfour\nfive\n'`)

	session, _, err := runRecorded(t,
		spawn.NewCommand(script),
		spawn.WithLineLimit(2),
	)

	require.NoError(t, err)
	assert.Equal(t, "four\nfive", session.FinalStdout())
	assert.Equal(t, []string{"four", "five"}, session.Stdout().Lines())
}

func TestSession_CaptureStdoutDisabled(t *testing.T) {
	t.Parallel()

	session, recorder, err := runRecorded(t,
		spawn.NewCommand("echo", "hi"),
		spawn.WithCaptureStdout(false),
	)

	require.NoError(t, err)
	assert.Equal(t, 0, recorder.Count("data"))
	assert.Equal(t, "", session.FinalStdout())
	assert.Equal(t, 1, recorder.Count("end"))
}

func TestSession_StderrLinesForwardedLive(t *testing.T) {
	t.Parallel()

	script := spawntest.Script(t, `printf 'first\nsecond\n' >&2`)

	_, recorder, err := runRecorded(t, spawn.NewCommand(script))
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, recorder.StderrLines())
}

func TestSession_DataChunksForwarded(t *testing.T) {
	t.Parallel()

	_, recorder, err := runRecorded(t, spawn.NewCommand("echo", "chunked"))
	require.NoError(t, err)

	var got []byte
	for _, e := range recorder.Events() {
		if e.Kind == "data" {
			got = append(got, e.Data...)
		}
	}

	assert.Equal(t, "chunked\n", string(got))
}

func TestSession_NoCommand(t *testing.T) {
	t.Parallel()

	recorder := spawntest.NewEventRecorder()
	session := spawn.NewSession(spawn.NewCommand(""), recorder.Options()...)

	err := session.Start(context.Background())
	require.ErrorIs(t, err, spawn.ErrNoCommand)

	// Fail-fast still resolves the session: the error event fires and Wait
	// does not hang.
	require.ErrorIs(t, session.Wait(), spawn.ErrNoCommand)
	assert.Equal(t, 1, recorder.Count("error"))
	assert.Equal(t, 0, recorder.Count("start"))
}

func TestSession_SpawnFailure(t *testing.T) {
	t.Parallel()

	recorder := spawntest.NewEventRecorder()
	session := spawn.NewSession(
		spawn.NewCommand("/nonexistent/definitely-not-a-binary"),
		recorder.Options()...,
	)

	err := session.Start(context.Background())
	require.Error(t, err)

	var spawnErr *spawn.SpawnError
	require.ErrorAs(t, err, &spawnErr)

	require.Error(t, session.Wait())
	assert.Equal(t, 1, recorder.Count("error"))
	assert.Equal(t, 1, recorder.Count("complete"))
	assert.Equal(t, 0, recorder.Count("end"))
}

func TestSession_StartTwice(t *testing.T) {
	t.Parallel()

	session := spawn.NewSession(spawn.NewCommand("echo", "hi"))
	require.NoError(t, session.Start(context.Background()))

	err := session.Start(context.Background())
	require.Error(t, err)

	require.NoError(t, session.Wait())
}

func TestSession_WorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	session, _, err := runRecorded(t,
		spawn.NewCommand("pwd"),
		spawn.WithDir(dir),
	)

	require.NoError(t, err)

	// Tempdirs may be symlinked (macOS), so compare resolved paths.
	want, werr := filepath.EvalSymlinks(dir)
	require.NoError(t, werr)
	got, gerr := filepath.EvalSymlinks(session.FinalStdout())
	require.NoError(t, gerr)
	assert.Equal(t, want, got)
}

func TestSession_EnvPassedToChild(t *testing.T) {
	t.Parallel()

	script := spawntest.Script(t, `printf '%s\n' "$SPAWN_TEST_VALUE"`)

	session, _, err := runRecorded(t,
		spawn.NewCommand(script),
		spawn.WithEnv("SPAWN_TEST_VALUE=marker"),
	)

	require.NoError(t, err)
	assert.Equal(t, "marker", session.FinalStdout())
}

func TestRun(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := spawn.Run(context.Background(), spawn.NewCommand("echo", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "hi", stdout)
	assert.Equal(t, "", stderr)
}
