package ruvy

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/sys"

	"github.com/Shopify/ruvy/internal/testing/guestmod"
)

func TestRun_ExitCode(t *testing.T) {
	for _, code := range []int32{0, 1, 3, 255} {
		mod := (&guestmod.Module{Funcs: []guestmod.Func{{Name: "_start", Body: guestmod.ProcExit(code)}}}).Encode()
		actual, err := Run(testCtx, mod, nil)
		require.NoError(t, err)
		require.Equal(t, uint32(code), actual)
	}
}

func TestRun_Stdin(t *testing.T) {
	// A built Echo module ignores stdin at run time: the script was read at build time.
	mod, err := Build(testCtx, guestmod.Echo().Encode(), "build time", quiet())
	require.NoError(t, err)

	var stdout bytes.Buffer
	code, err := Run(testCtx, mod, NewRunConfig().WithStdin(bytes.NewBufferString("run time")).WithStdout(&stdout))
	require.NoError(t, err)
	require.Zero(t, code)
	require.Equal(t, "build time", stdout.String())
}

func TestRun_Invalid(t *testing.T) {
	_, err := Run(testCtx, []byte("not wasm"), nil)
	require.Error(t, err)
}

func TestRun_Trap(t *testing.T) {
	mod := (&guestmod.Module{Funcs: []guestmod.Func{{Name: "_start", Body: guestmod.Unreachable}}}).Encode()
	_, err := Run(testCtx, mod, nil)
	require.Error(t, err)
}

func TestRun_ContextDone(t *testing.T) {
	mod := (&guestmod.Module{Funcs: []guestmod.Func{{Name: "_start", Body: guestmod.Loop(guestmod.Br(0))}}}).Encode()

	ctx, cancel := context.WithTimeout(testCtx, 50*time.Millisecond)
	defer cancel()
	code, err := Run(ctx, mod, nil)
	require.Error(t, err)
	require.Equal(t, sys.ExitCodeDeadlineExceeded, code)
}
