package spawn

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var gateSignals = []Signal{SignalProcessExited, SignalStdoutClosed, SignalStderrClosed}

// permutations returns every ordering of sigs.
func permutations(sigs []Signal) [][]Signal {
	if len(sigs) <= 1 {
		return [][]Signal{append([]Signal(nil), sigs...)}
	}

	var out [][]Signal

	for i := range sigs {
		rest := make([]Signal, 0, len(sigs)-1)
		rest = append(rest, sigs[:i]...)
		rest = append(rest, sigs[i+1:]...)

		for _, perm := range permutations(rest) {
			out = append(out, append([]Signal{sigs[i]}, perm...))
		}
	}

	return out
}

func TestCompletionGate_FiresOnceForEveryOrdering(t *testing.T) {
	t.Parallel()

	for _, perm := range permutations(gateSignals) {
		fired := 0

		gate := NewCompletionGate(func(err error) {
			fired++

			assert.NoError(t, err)
		}, gateSignals...)

		for i, sig := range perm {
			assert.False(t, gate.Fired(), "fired before signal %d of %v", i, perm)
			gate.Report(sig, nil)
		}

		assert.Equal(t, 1, fired, "ordering %v", perm)
		assert.True(t, gate.Fired())
	}
}

func TestCompletionGate_WaitsForAllSignals(t *testing.T) {
	t.Parallel()

	gate := NewCompletionGate(func(error) {
		t.Fatal("gate fired with signals outstanding")
	}, gateSignals...)

	gate.Report(SignalProcessExited, nil)
	gate.Report(SignalStdoutClosed, nil)

	assert.False(t, gate.Fired())
}

func TestCompletionGate_DuplicateReports(t *testing.T) {
	t.Parallel()

	fired := 0
	gate := NewCompletionGate(func(error) { fired++ }, gateSignals...)

	gate.Report(SignalProcessExited, nil)
	gate.Report(SignalProcessExited, nil)
	gate.Report(SignalStdoutClosed, nil)
	gate.Report(SignalStderrClosed, nil)
	gate.Report(SignalStderrClosed, nil)

	assert.Equal(t, 1, fired)
}

func TestCompletionGate_FirstErrorWins(t *testing.T) {
	t.Parallel()

	first := errors.New("first")
	second := errors.New("second")

	var got error

	gate := NewCompletionGate(func(err error) { got = err }, gateSignals...)

	gate.Report(SignalProcessExited, first)
	gate.Report(SignalStdoutClosed, nil) // error-free report must not clear it
	gate.Report(SignalStderrClosed, second)

	require.Same(t, first, got)
}

func TestCompletionGate_ReducedSignalSet(t *testing.T) {
	t.Parallel()

	// Stdout capture disabled: stdoutClosed never arrives and must not be
	// waited on.
	fired := false
	gate := NewCompletionGate(func(error) { fired = true },
		SignalProcessExited, SignalStderrClosed)

	gate.Report(SignalStderrClosed, nil)
	require.False(t, fired)

	gate.Report(SignalProcessExited, nil)
	require.True(t, fired)
}

func TestCompletionGate_ConcurrentReports(t *testing.T) {
	t.Parallel()

	for range 100 {
		var (
			mu    sync.Mutex
			fired int
		)

		gate := NewCompletionGate(func(error) {
			mu.Lock()
			fired++
			mu.Unlock()
		}, gateSignals...)

		var wg sync.WaitGroup

		for _, sig := range gateSignals {
			wg.Add(1)

			go func() {
				defer wg.Done()
				gate.Report(sig, nil)
			}()
		}

		wg.Wait()

		require.Equal(t, 1, fired)
	}
}

// Whatever the interleaving of reports and errors, the gate fires exactly
// once, exactly when the required set is satisfied, with the first reported
// error.
func TestCompletionGate_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		required := rapid.SampledFrom([][]Signal{
			gateSignals,
			{SignalProcessExited, SignalStderrClosed},
		}).Draw(t, "required")

		reports := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) struct {
			Sig    Signal
			HasErr bool
		} {
			return struct {
				Sig    Signal
				HasErr bool
			}{
				Sig:    rapid.SampledFrom(gateSignals).Draw(t, "sig"),
				HasErr: rapid.Bool().Draw(t, "hasErr"),
			}
		}), 1, 12).Draw(t, "reports")

		fired := 0

		var gotErr error

		gate := NewCompletionGate(func(err error) {
			fired++
			gotErr = err
		}, required...)

		var wantErr error

		outstanding := make(map[Signal]struct{}, len(required))
		for _, sig := range required {
			outstanding[sig] = struct{}{}
		}

		expectFired := 0

		for i, rep := range reports {
			var err error
			if rep.HasErr {
				err = errors.New("err")
			}

			gate.Report(rep.Sig, err)

			if expectFired == 0 {
				if err != nil && wantErr == nil {
					wantErr = err
				}

				delete(outstanding, rep.Sig)

				if len(outstanding) == 0 {
					expectFired = 1
				}
			}

			require.Equal(t, expectFired, fired, "after report %d", i)
		}

		if expectFired == 1 {
			if wantErr == nil {
				require.NoError(t, gotErr)
			} else {
				require.Same(t, wantErr, gotErr)
			}
		}
	})
}
