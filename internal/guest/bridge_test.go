package guest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func startedRuntime(t *testing.T) (*Runtime, *fakeInterpreter) {
	interp := newFakeInterpreter()
	rt := NewRuntime(interp)
	require.NoError(t, rt.Start())
	return rt, interp
}

func TestRuntime_Eval(t *testing.T) {
	rt, interp := startedRuntime(t)

	v, err := rt.Eval("A = 1")
	require.NoError(t, err)
	require.NotZero(t, v)
	require.Equal(t, "1", interp.bindings["A"])
}

func TestRuntime_Eval_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected *InterpreterError
	}{
		{
			name:     "exception",
			source:   "raise intentional preload error",
			expected: &InterpreterError{Status: 6, Message: "#<RuntimeError: intentional preload error>"},
		},
		{
			name:     "exception that can't be described",
			source:   "raise!",
			expected: &InterpreterError{Status: 6, Message: UnknownExceptionMessage},
		},
		{
			name:     "NUL byte",
			source:   "A = 1\x00",
			expected: &InterpreterError{Status: -1, Message: "source contains a NUL byte"},
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			rt, interp := startedRuntime(t)

			_, err := rt.Eval(tc.source)
			var ie *InterpreterError
			require.True(t, errors.As(err, &ie))
			require.Equal(t, tc.expected, ie)
			require.Equal(t, tc.expected.Message, err.Error())

			_, pending := interp.ErrInfo()
			require.False(t, pending)
		})
	}
}

func TestRuntime_Eval_NULNotPassedToInterpreter(t *testing.T) {
	rt, interp := startedRuntime(t)
	_, err := rt.Eval("\x00")
	require.Error(t, err)
	require.Empty(t, interp.evaluated)
}

// A failed evaluation must not leak into the next one.
func TestRuntime_ErrorSlotIsolation(t *testing.T) {
	rt, interp := startedRuntime(t)

	_, err := rt.Eval("raise first")
	require.EqualError(t, err, "#<RuntimeError: first>")

	_, err = rt.Eval("B = 2")
	require.NoError(t, err)
	require.Equal(t, "2", interp.bindings["B"])

	_, err = rt.Eval("raise second")
	require.EqualError(t, err, "#<RuntimeError: second>")
}

func TestRuntime_Lifecycle(t *testing.T) {
	interp := newFakeInterpreter()
	rt := NewRuntime(interp)

	_, err := rt.Eval("A = 1")
	require.ErrorIs(t, err, ErrNotStarted)
	require.ErrorIs(t, rt.Shutdown(), ErrNotStarted)

	require.NoError(t, rt.Start())
	require.EqualError(t, rt.Start(), "cannot start the interpreter when already started")

	require.NoError(t, rt.Shutdown())
	require.True(t, interp.cleanedUp)

	_, err = rt.Eval("A = 1")
	require.ErrorIs(t, err, ErrShutdown)
	require.ErrorIs(t, rt.Shutdown(), ErrShutdown)
	require.ErrorIs(t, rt.Start(), ErrShutdown)
}

func TestRuntime_StartError(t *testing.T) {
	interp := newFakeInterpreter()
	interp.initErr = errors.New("out of memory")
	rt := NewRuntime(interp)

	require.EqualError(t, rt.Start(), "out of memory")
	_, err := rt.Eval("A = 1")
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestRuntime_ShutdownStatus(t *testing.T) {
	rt, interp := startedRuntime(t)
	interp.cleanupStatus = 1

	err := rt.Shutdown()
	require.Equal(t, &CleanupError{Status: 1}, err)
	require.EqualError(t, err, "unexpected interpreter cleanup status: 1")

	_, err = rt.Eval("A = 1")
	require.ErrorIs(t, err, ErrShutdown)
}
