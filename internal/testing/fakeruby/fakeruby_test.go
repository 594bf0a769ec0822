package fakeruby

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpreter(t *testing.T) {
	var stdout bytes.Buffer
	i := New(&stdout)
	require.NoError(t, i.Init())

	_, status := i.EvalProtect("GREETING = hello\nNAME = world\nputs GREETING NAME\nputs")
	require.Zero(t, status)
	require.Equal(t, "hello world\n\n", stdout.String())

	_, status = i.EvalProtect("raise boom\nputs unreachable")
	require.Equal(t, int32(TagRaise), status)
	exc, ok := i.ErrInfo()
	require.True(t, ok)
	s, ok := i.Inspect(exc)
	require.True(t, ok)
	require.Equal(t, "#<RuntimeError: boom>", s)
	require.Equal(t, "hello world\n\n", stdout.String())

	i.ClearErrInfo()
	_, ok = i.ErrInfo()
	require.False(t, ok)

	_, status = i.EvalProtect("nope")
	require.Equal(t, int32(TagRaise), status)
	exc, _ = i.ErrInfo()
	s, _ = i.Inspect(exc)
	require.Equal(t, "#<RuntimeError: undefined local variable or method `nope'>", s)
}
